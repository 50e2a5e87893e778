package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/leahpeker/vedgyproject/internal/adapter/email"
	mongoadapter "github.com/leahpeker/vedgyproject/internal/adapter/mongo"
	natsadapter "github.com/leahpeker/vedgyproject/internal/adapter/nats"
	redisadapter "github.com/leahpeker/vedgyproject/internal/adapter/redis"
	"github.com/leahpeker/vedgyproject/internal/adapter/storage"
	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	httpport "github.com/leahpeker/vedgyproject/internal/port/http"
	"github.com/leahpeker/vedgyproject/internal/service"
)

type App struct {
	cfg         *config.Config
	log         logger.Logger
	server      *httpport.Server
	mongoClient *mongo.Client
	redisClient *redis.Client
	natsConn    natsCloser
}

type natsCloser interface {
	Close()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	appLogger, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Infof("Configuration loaded: Env=%s, HTTP port: %s", cfg.Env, cfg.HTTPServer.Port)

	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized")

	if err := mongoadapter.EnsureIndexes(ctx, mongoClient, cfg.MongoDB); err != nil {
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized")

	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	publisher, err := natsadapter.NewNATSPublisher(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	appLogger.Info("NATS publisher initialized")

	photoStorage, err := newPhotoStorage(ctx, cfg.Storage, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	mailer, err := email.NewSMTPSender(cfg.SMTP, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
	}

	metricsManager := metrics.NewMetricsManager("listing_service")

	listingRepo := mongoadapter.NewListingRepository(mongoClient, cfg.MongoDB)
	paymentRepo := mongoadapter.NewPaymentTransactionRepository(mongoClient, cfg.MongoDB)
	listingCache := redisadapter.NewListingCache(redisClient, cfg.Listing.CacheTTL)

	sweeper := service.NewSweeper(listingRepo, publisher, metricsManager, appLogger)
	listingService := service.NewListingService(listingRepo, listingCache, photoStorage, publisher, sweeper, appLogger)
	photoService := service.NewPhotoService(listingRepo, photoStorage, listingCache, metricsManager, appLogger, cfg.Listing.MaxPhotos, cfg.Listing.MaxPhotoBytes)
	moderationService := service.NewModerationService(listingRepo, listingCache, publisher, mailer, sweeper, metricsManager, appLogger, cfg.Listing.Term)
	paymentService := service.NewPaymentService(listingRepo, paymentRepo, listingCache, publisher, metricsManager, appLogger, cfg.Listing.Term)

	handler := httpport.NewHandler(listingService, photoService, moderationService, paymentService, photoStorage, appLogger)
	router := httpport.NewRouter(handler, cfg.JWTSecret, appLogger)
	server := httpport.NewServer(cfg.HTTPServer, router, appLogger)

	if cfg.Metrics.Port != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger, metricsManager.Registry); err != nil {
				appLogger.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	return &App{
		cfg:         cfg,
		log:         appLogger,
		server:      server,
		mongoClient: mongoClient,
		redisClient: redisClient,
		natsConn:    natsConn,
	}, nil
}

// newPhotoStorage builds the backend chain. With minio configured, local
// disk serves as the fallback so uploads survive an object store outage.
func newPhotoStorage(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*storage.PhotoStorage, error) {
	local, err := storage.NewLocalBackend(cfg.Local)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == "local" {
		log.Info("Photo storage: local disk only")
		return storage.NewPhotoStorage(log, local), nil
	}

	minioBackend, err := storage.NewMinIOBackend(ctx, cfg.MinIO)
	if err != nil {
		return nil, err
	}
	log.Info("Photo storage: minio with local disk fallback")
	return storage.NewPhotoStorage(log, minioBackend, local), nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Run(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	a.log.Info("Application shut down successfully")
}
