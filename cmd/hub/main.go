package main

import (
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	handler "github.com/MKhiriev/go-flock-sync/internal/handler/http"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/server"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/MKhiriev/go-flock-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("flock-hub")
	cfg, err := config.GetHubConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, cfg.Realtime, log)
	handlers := handler.NewHandler(services, cfg.App, cfg.Realtime, log)

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
