package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ximepaparella/gifty-api/api"
	"github.com/ximepaparella/gifty-api/config"
	"github.com/ximepaparella/gifty-api/internal/cache"
	"github.com/ximepaparella/gifty-api/internal/database"
	"github.com/ximepaparella/gifty-api/internal/messaging"
	"github.com/ximepaparella/gifty-api/internal/search"
	"github.com/ximepaparella/gifty-api/internal/service"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server handling orders, vouchers, stores, products, customers and users`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = &tracing.NewRelicTracer{}
	}

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		elasticClient = nil
	}

	// Initialize the fulfillment queue publisher
	var publisher service.QueuePublisher
	if cfg.ServiceBus.ConnectionString != "" {
		sbPublisher, err := messaging.NewPublisher(cfg.ServiceBus)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize queue publisher, relying on the reconciliation sweep")
		} else {
			publisher = sbPublisher
			defer sbPublisher.Close()
		}
	} else {
		log.Warn().Msg("No Service Bus connection configured, relying on the reconciliation sweep")
	}

	// Initialize and start the server
	server := api.NewServer(cfg, db, redisCache, elasticClient, publisher, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
