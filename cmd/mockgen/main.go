package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"taxidash/internal/logging"
	"taxidash/internal/mockapi"

	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "localhost:5002", "Address to serve the synthetic API on")
	seed := flag.Int64("seed", mockapi.DefaultConfig.Seed, "Random seed")
	trips := flag.Int("trips", mockapi.DefaultConfig.Trips, "Number of synthetic trips to generate")
	scale := flag.Int("scale", mockapi.DefaultConfig.Scale, "Real trips represented by each synthetic trip")
	outDir := flag.String("out", "", "Write the dataset to this directory instead of serving it")
	verbose := flag.Bool("verbose", false, "Log every request")
	flag.Parse()

	if _, err := logging.Setup(logging.Options{Verbose: *verbose}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	cfg := mockapi.GeneratorConfig{Seed: *seed, Trips: *trips, Scale: *scale}
	ds := mockapi.Generate(cfg)
	log.Info().Int64("seed", cfg.Seed).Int("trips", len(ds.Trips)).Int("scale", cfg.Scale).Msg("Generated synthetic month")

	if *outDir != "" {
		if err := mockapi.Save(*outDir, ds); err != nil {
			log.Fatal().Err(err).Msg("Failed to save mock data")
		}
		fmt.Println("Done.")
		return
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mockapi.NewServer(ds),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("url", "http://"+*addr+mockapi.Prefix).Msg("Serving synthetic statistics API")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
