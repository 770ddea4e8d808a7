package api

import (
	"context"
	"net/http"

	"github.com/ximepaparella/gifty-api/api/handlers"
	"github.com/ximepaparella/gifty-api/api/middleware"
	"github.com/ximepaparella/gifty-api/api/routes"
	"github.com/ximepaparella/gifty-api/config"
	"github.com/ximepaparella/gifty-api/internal/cache"
	"github.com/ximepaparella/gifty-api/internal/fulfillment"
	"github.com/ximepaparella/gifty-api/internal/mailer"
	"github.com/ximepaparella/gifty-api/internal/pdf"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/search"
	"github.com/ximepaparella/gifty-api/internal/service"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	config     config.Config
	httpServer *http.Server
}

// NewServer wires repositories, services and handlers into a configured HTTP
// server. The Redis cache, Elasticsearch client and queue publisher may be
// nil; the affected features degrade instead of failing.
func NewServer(
	cfg config.Config,
	db *gorm.DB,
	redisCache *cache.RedisCache,
	esClient *search.ElasticClient,
	publisher service.QueuePublisher,
	tracer tracing.Tracer,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	orderRepo := repository.NewOrderRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)

	renderer := pdf.NewRenderer(storeRepo, productRepo, redisCache,
		cfg.PDF.StorageDir, cfg.PDF.TemplateDir, cfg.PDF.RenderTimeout)
	dispatcher := mailer.NewDispatcher(mailer.NewSMTPMailer(cfg.SMTP))
	fulfillmentSvc := fulfillment.NewService(orderRepo, storeRepo, renderer, dispatcher, esClient)

	orderService := service.NewOrderService(orderRepo, customerRepo, fulfillmentSvc, publisher, tracer)
	storeService := service.NewStoreService(storeRepo, cfg.Uploads.Dir)
	productService := service.NewProductService(productRepo, storeRepo)
	customerService := service.NewCustomerService(customerRepo)
	userService := service.NewUserService(userRepo)

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	if nrApp := tracer.Application(); nrApp != nil {
		router.Use(middleware.NewRelicMiddleware(nrApp))
	}

	routes.SetupRoutes(router, routes.Handlers{
		Health:   handlers.NewHealthHandler(db),
		Orders:   handlers.NewOrderHandler(orderService, fulfillmentSvc, esClient, tracer),
		Stores:   handlers.NewStoreHandler(storeService),
		Products: handlers.NewProductHandler(productService),
		Customer: handlers.NewCustomerHandler(customerService),
		Users:    handlers.NewUserHandler(userService),
	}, userRepo)

	return &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress,
			Handler:      router,
			ReadTimeout:  cfg.ServerTimeout,
			WriteTimeout: cfg.ServerTimeout,
		},
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
