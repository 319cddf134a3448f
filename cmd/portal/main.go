package main

import (
	"fmt"
	"os"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/config"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/logger"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/portal"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Component("portal")

	srv, err := portal.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create portal")
	}

	log.Info().Str("version", version).Msg("Starting fleet portal...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Portal failed to start")
	}
}
