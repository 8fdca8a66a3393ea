package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Checks a label request json against the published api description
// before it ever hits a daemon. Handy inside client CI pipelines, a
// schema mismatch fails loud and local instead of as a 400 in
// production.

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	var specFile string
	var requestFile string
	var endpoint string
	flag.StringVar(
		&specFile,
		"spec_file",
		"api/openapi.json",
		"openapi document describing the label service",
	)
	flag.StringVar(
		&requestFile,
		"request_file",
		"",
		"json file with the label request to check",
	)
	flag.StringVar(
		&endpoint,
		"endpoint",
		"/format",
		"endpoint the request is meant for, eg. /format or /batch",
	)
	flag.Parse()

	if requestFile == "" {
		log.Fatal().Str("component", "CHECK_REQUEST").Msg("request_file argument is required")
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specFile)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").
			Str("spec_file", specFile).
			Msg("could not load the api description")
	}
	if err := doc.Validate(context.Background()); err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").
			Str("spec_file", specFile).
			Msg("the api description itself is not valid")
	}

	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not build a router from the api description")
	}

	body, err := os.ReadFile(requestFile)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").
			Str("request_file", requestFile).
			Msg("could not read the request file")
	}

	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not build the probe request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	route, pathParams, err := router.FindRoute(httpReq)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").
			Str("endpoint", endpoint).
			Msg("endpoint is not part of the api description")
	}

	requestValidationInput := &openapi3filter.RequestValidationInput{
		Request:    httpReq,
		PathParams: pathParams,
		Route:      route,
	}
	if err := openapi3filter.ValidateRequest(context.Background(), requestValidationInput); err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").
			Str("request_file", requestFile).
			Str("endpoint", endpoint).
			Msg("request does not match the api description")
	}

	log.Info().Str("component", "CHECK_REQUEST").
		Str("request_file", requestFile).
		Str("endpoint", endpoint).
		Msg("request is valid")
}
