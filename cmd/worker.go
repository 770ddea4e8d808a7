package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ximepaparella/gifty-api/config"
	"github.com/ximepaparella/gifty-api/internal/cache"
	"github.com/ximepaparella/gifty-api/internal/database"
	"github.com/ximepaparella/gifty-api/internal/fulfillment"
	"github.com/ximepaparella/gifty-api/internal/mailer"
	"github.com/ximepaparella/gifty-api/internal/messaging"
	"github.com/ximepaparella/gifty-api/internal/pdf"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/search"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that renders voucher PDFs, dispatches emails, reconciles unfulfilled orders and expires vouchers`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

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

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
		elasticClient = nil
	}

	// Initialize the fulfillment pipeline
	orderRepo := repository.NewOrderRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	renderer := pdf.NewRenderer(storeRepo, productRepo, redisCache,
		cfg.PDF.StorageDir, cfg.PDF.TemplateDir, cfg.PDF.RenderTimeout)
	dispatcher := mailer.NewDispatcher(mailer.NewSMTPMailer(cfg.SMTP))
	fulfillmentSvc := fulfillment.NewService(orderRepo, storeRepo, renderer, dispatcher, elasticClient)

	// Start the queue processor when a Service Bus connection is configured.
	// Without one the reconciliation sweep carries the whole load.
	if cfg.ServiceBus.ConnectionString != "" {
		processor, err := messaging.NewProcessor(cfg.ServiceBus)
		if err != nil {
			return err
		}
		defer processor.Close()

		g.Go(func() error {
			log.Info().Str("queue", cfg.ServiceBus.QueueName).Msg("Starting fulfillment queue processor")
			return processor.ProcessMessages(ctx, func(ctx context.Context, msg *azservicebus.ReceivedMessage) error {
				payload, err := messaging.DecodeOrderCreated(msg)
				if err != nil {
					return err
				}
				return fulfillmentSvc.Fulfill(ctx, payload.OrderID)
			})
		})
	} else {
		log.Warn().Msg("No Service Bus connection configured, fulfillment runs on the reconciliation sweep only")
	}

	// Start the scheduled sweeps
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ReconcileInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Running fulfillment reconciliation sweep")
				if err := fulfillmentSvc.ReconcileOrders(ctx, cfg.Worker.ReconcileGrace, cfg.Worker.ReconcileBatch); err != nil {
					log.Error().Err(err).Msg("Failed to reconcile orders")
				}
			}),
		)
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ExpireInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Running voucher expiration sweep")
				if err := fulfillmentSvc.ExpireVouchers(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to expire vouchers")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
