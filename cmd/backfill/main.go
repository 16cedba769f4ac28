// Command backfill repairs route offers that were persisted without a
// polyline, typically after a routing-service outage. It exits once the
// backlog is drained.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/application"
	"github.com/ridepool/service-offers/internal/config"
	"github.com/ridepool/service-offers/internal/pkg/database"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/pkg/logger"
	"github.com/ridepool/service-offers/internal/repository"
	"github.com/ridepool/service-offers/internal/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "offers-backfill")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	offerRepo := repository.NewGormOfferRepository(db)
	provider := routing.NewOSRMClient(cfg.RoutingConfig.OSRMBaseURL, cfg.RoutingConfig.Timeout, log)

	backfill := application.NewBackfillService(
		offerRepo,
		provider,
		kafkaProducer,
		cfg.MatchingConfig.WorkerPoolSize,
		log,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := backfill.Run(ctx)
	if err != nil {
		log.Fatal("backfill run failed", zap.Error(err))
	}

	log.Info("backfill complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("fallbacks", result.Fallbacks),
		zap.Int("failed", result.Failed),
	)
}
