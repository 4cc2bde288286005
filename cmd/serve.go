package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/internal/service"
	"github.com/scalarorg/lending-bridge/pkg/db"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/telemetry"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge service and its HTTP API",
	Run:   run,
}

func run(cmd *cobra.Command, args []string) {
	// Load and initialize global config
	if err := config.Load(configPath); err != nil {
		panic("Failed to load config: " + err.Error())
	}
	config.InitLogger(config.GlobalConfig.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, &config.GlobalConfig.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	eventBus := events.GetEventBus(&config.GlobalConfig.EventBus)
	var dbAdapter *db.DatabaseAdapter
	if config.GlobalConfig.Database.URL != "" {
		dbAdapter, err = db.NewDatabaseAdapter(config.GlobalConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create database adapter")
		}
	} else {
		log.Warn().Msg("database.url is not set, bridge state is kept in memory")
	}

	svc, err := service.NewService(config.GlobalConfig, dbAdapter, eventBus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bridge service")
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start bridge service")
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down bridge...")
	svc.Stop()
}
