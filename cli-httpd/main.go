package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	labelworker "github.com/hypnotizedent/printshop-os-sub001"
)

// This assumes that there is a worker running
// To test it:
// curl -X POST -H "Content-Type: application/json" -d '{"doc_url":"http://localhost:8081/label.pdf"}' http://localhost:8080/format

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// a .env next to the binary may carry AMQP_URI and friends
	_ = godotenv.Load()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-signals
		log.Info().Str("component", "LABEL_HTTP").Str("signal", sig.String()).
			Msg("Caught signal to terminate, will not serve any further requests. Once the deferred queue is empty," +
				" http daemon will terminate.")
		labelworker.SetServiceStopping()
		for {
			// as soon as the number of deferred requests reaches zero, http daemon will exit
			if labelworker.PendingRequests() == 0 {
				log.Info().Str("component", "LABEL_HTTP").Str("signal", sig.String()).
					Msg("The deferred queue is now empty. The label http daemon will now exit. You may stop workers now")
				time.Sleep(5 * time.Second) // delay puffer for sending all requests back
				break
			}
			time.Sleep(1 * time.Second)
		}
		os.Exit(0)
	}()

	var httpPort uint
	var debug bool
	var inplace bool
	var saveFiles bool
	var workers int
	var rasterizer string
	flagFunc := func() {
		flag.UintVar(
			&httpPort,
			"http_port",
			8080,
			"The http port to listen on, eg, 8081",
		)
		flag.BoolVar(
			&debug,
			"debug",
			false,
			"sets debug flag, program will print more messages",
		)
		flag.BoolVar(
			&inplace,
			"inplace",
			false,
			"run the pipeline in-process instead of dispatching to rabbitMq workers",
		)
		flag.BoolVar(
			&saveFiles,
			"save_files",
			false,
			"if set there will be no clean up of temporary files",
		)
		flag.IntVar(
			&workers,
			"workers",
			0,
			"batch worker pool size, 0 picks a default for the host",
		)
		flag.StringVar(
			&rasterizer,
			"rasterizer",
			labelworker.RasterizerPoppler,
			"pdf rasterizer for incoming pdf files, e.g. -rasterizer {poppler,ghostscript}",
		)
	}

	rabbitConfig := labelworker.DefaultConfigFlagsOverride(flagFunc)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	pipeline := labelworker.NewPipeline(rasterizer, saveFiles)
	if pipeline.Loader.Rasterizer == nil {
		log.Fatal().Str("component", "LABEL_HTTP").
			Str("rasterizer", rasterizer).
			Msg("please choose poppler or ghostscript as pdf rasterizer")
	}

	handler := labelworker.NewLabelHTTPHandler(rabbitConfig, pipeline, labelworker.DefaultProcessingOptions(), inplace)

	// any requests to root, just point at the landing page
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, labelworker.GenerateLandingPage())
	})

	http.Handle("/format", labelworker.InstrumentHTTPHandler(handler, "format"))
	http.Handle("/format-multipart", labelworker.InstrumentHTTPHandler(labelworker.NewLabelHTTPMultipartHandler(handler), "format-multipart"))
	http.Handle("/preview", labelworker.InstrumentHTTPHandler(labelworker.NewLabelHTTPPreviewHandler(handler), "preview"))
	http.Handle("/batch", labelworker.InstrumentHTTPHandler(labelworker.NewLabelHTTPBatchHandler(handler, workers), "batch"))
	http.Handle("/status", labelworker.NewLabelHTTPStatusHandler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		canAccept, stopping := labelworker.ServiceState()
		if !canAccept {
			w.WriteHeader(http.StatusServiceUnavailable)
			if stopping {
				_, _ = fmt.Fprint(w, `{"status":"draining"}`)
			} else {
				_, _ = fmt.Fprint(w, `{"status":"saturated"}`)
			}
			return
		}
		_, _ = fmt.Fprint(w, `{"status":"ok"}`)
	})
	// expose metrics for prometheus
	http.Handle("/metrics", promhttp.Handler())

	listenAddr := fmt.Sprintf(":%d", httpPort)

	log.Info().Str("component", "LABEL_HTTP").Str("listenAddr", listenAddr).Msg("Starting listener...")

	if inplace {
		// without workers there is no queue to watch, the daemon serves
		// as long as it lives
		labelworker.SetServiceAccepting()
	} else {
		// start a goroutine which will run forever and decide if we have resources for incoming requests
		go func() {
			labelworker.SetResManagerState(rabbitConfig)
		}()
	}

	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Caller().Msg("label httpd has failed to start")
	}

}
