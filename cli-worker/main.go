package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	labelworker "github.com/hypnotizedent/printshop-os-sub001"
)

// This assumes that there is a rabbit mq running
// To test it, fire up the http daemon and send it a curl request

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// a .env next to the binary may carry AMQP_URI and friends
	_ = godotenv.Load()

	noOpFlagFunc := labelworker.NoOpFlagFunctionService()
	serviceConfig, err := labelworker.DefaultConfigFlagsServiceOverride(noOpFlagFunc)
	if err != nil {
		log.Panic().Str("component", "LABEL_WORKER").
			Msgf("error getting arguments: %v ", err)
	}
	if serviceConfig.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Debug().Interface("serviceConfig", serviceConfig).Msg("parameter list of serviceConfig")

	// infinite loop, since sometimes the worker <-> rabbitmq connection
	// gets broken and the worker has to dial again
	for {
		log.Info().
			Str("component", "LABEL_WORKER").
			Msg("Creating new label worker")

		labelWorker, err := labelworker.NewLabelRpcWorker(serviceConfig)
		if err != nil {
			log.Panic().Str("component", "LABEL_WORKER").
				Msg("Could not create rpc worker")
		}

		if err := labelWorker.Run(); err != nil {
			log.Error().Err(err).
				Str("component", "LABEL_WORKER").
				Msg("Error running worker, will retry")
			time.Sleep(5 * time.Second)
			continue
		}

		// this happens when the connection is closed
		err = <-labelWorker.Done
		log.Error().
			Str("component", "LABEL_WORKER").Err(err).
			Msg("Label worker failed with error")
	}

}
