package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/application"
	"github.com/ridepool/service-offers/internal/config"
	"github.com/ridepool/service-offers/internal/domain/matching"
	offerEvents "github.com/ridepool/service-offers/internal/events"
	"github.com/ridepool/service-offers/internal/handler"
	"github.com/ridepool/service-offers/internal/pkg/database"
	"github.com/ridepool/service-offers/internal/pkg/health"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/pkg/logger"
	"github.com/ridepool/service-offers/internal/pkg/middleware"
	"github.com/ridepool/service-offers/internal/repository"
	"github.com/ridepool/service-offers/internal/routing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-offers")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-offers",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := db.AutoMigrate(&repository.OfferModel{}, &repository.VehicleModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}
	log.Info("database migration completed")

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	offerRepo := repository.NewGormOfferRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)

	// Initialize routing provider, with a Redis cache when configured
	var provider routing.PolylineProvider = routing.NewOSRMClient(
		cfg.RoutingConfig.OSRMBaseURL,
		cfg.RoutingConfig.Timeout,
		log,
	)
	if cfg.RoutingConfig.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RoutingConfig.RedisAddr})
		provider = routing.NewRedisRouteCache(provider, redisClient, cfg.RoutingConfig.CacheTTL, log)
		log.Info("route cache enabled", zap.String("redis", cfg.RoutingConfig.RedisAddr))
	}

	// Initialize matcher
	matcher := matching.NewMatcher(matching.Config{
		MaxOffRouteKm:    cfg.MatchingConfig.MaxOffRouteKm,
		LengthRatioSlack: cfg.MatchingConfig.LengthRatioSlack,
	})

	// Initialize application services
	offerService := application.NewOfferService(offerRepo, vehicleRepo, provider, kafkaProducer, log)
	searchService := application.NewSearchService(offerRepo, matcher, cfg.MatchingConfig.WorkerPoolSize, log)
	backfillService := application.NewBackfillService(offerRepo, provider, kafkaProducer, cfg.MatchingConfig.WorkerPoolSize, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)

	// Initialize and start trip event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "offers-service"
	tripConsumer := offerEvents.NewTripEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		offerService,
		log,
	)
	defer func() { _ = tripConsumer.Close() }()

	go func() {
		log.Info("starting trip event consumer")
		if err := tripConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("trip event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	offerHandler := handler.NewOfferHandler(offerService, searchService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	adminHandler := handler.NewAdminOfferHandler(offerRepo, backfillService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-offers")
	healthHandler.RegisterRoutes(router)

	// Register routes
	offerHandler.RegisterRoutes(&router.RouterGroup)
	vehicleHandler.RegisterRoutes(&router.RouterGroup)
	adminHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-offers...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-offers stopped")
}
