package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MKhiriev/go-auth-gate/internal/adapter"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/handler"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/server"
	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/internal/workers"
	"github.com/MKhiriev/go-auth-gate/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		logger.NewLogger("go-auth-gate", "").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger(cfg.App.Name, cfg.App.LogLevel)
	log.Debug().
		Str("http_address", cfg.Server.HTTPAddress).
		Str("grpc_address", cfg.Server.GRPCAddress).
		Str("cache_backend", cfg.Cache.Backend).
		Str("mailer_backend", cfg.Mailer.Backend).
		Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	storages, err := store.NewStorages(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	mailer, err := adapter.NewMailer(cfg.Mailer, storages.Cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating mailer")
	}

	services, err := service.NewServices(storages, cfg, mailer, models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}
	defer services.Wait()

	handlers, err := handler.NewHandlers(services, storages, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	jobs := []workers.Worker{
		workers.NewSessionSweeper(storages.SessionRepository, cfg.Workers.SweepInterval, log),
	}
	if pruner, ok := storages.Cache.(workers.Pruner); ok {
		jobs = append(jobs, workers.NewCachePruner(pruner, cfg.Workers.PruneInterval, log))
	}
	background := workers.NewWorkers(jobs...)

	var wg sync.WaitGroup
	wg.Go(func() { background.Run(ctx) })

	if err = srv.RunServer(ctx); err != nil {
		log.Err(err).Msg("server stopped with error")
	}

	stop()
	wg.Wait()
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
