//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ridepool/service-offers/internal/application"
	offerEvents "github.com/ridepool/service-offers/internal/events"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/repository"
	"github.com/ridepool/service-offers/internal/routing"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// offerStack holds wired-up offer service components.
type offerStack struct {
	Service         *application.OfferService
	Consumer        *offerEvents.TripEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_offers",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_offers sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(&repository.OfferModel{}, &repository.VehicleModel{}))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, offerEvents.TopicOfferEvents, offerEvents.TopicTripEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupOfferStack wires up the full offer service stack. The routing provider
// points at an unreachable OSRM endpoint, so all geometry comes from the
// two-point fallback path.
func setupOfferStack(t *testing.T, db *gorm.DB, brokers []string) *offerStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	offerRepo := repository.NewGormOfferRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	provider := routing.NewOSRMClient("http://127.0.0.1:1", time.Second, logger)
	producer := kafka.NewProducer(brokers, logger)
	offerSvc := application.NewOfferService(offerRepo, vehicleRepo, provider, producer, logger)

	groupID := fmt.Sprintf("test-offers-%s", uuid.New().String()[:8])
	consumer := offerEvents.NewTripEventConsumer(brokers, groupID, offerSvc, logger)

	return &offerStack{
		Service:         offerSvc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedVehicle inserts a registered vehicle for the driver.
func seedVehicle(t *testing.T, db *gorm.DB, vehicleID, driverID uuid.UUID) {
	t.Helper()
	now := time.Now().UTC()
	model := repository.VehicleModel{
		ID:           vehicleID,
		DriverID:     driverID,
		VehicleType:  "sedan",
		Brand:        "Maruti",
		Model:        "Swift",
		PlateNumber:  fmt.Sprintf("KA01%s", uuid.New().String()[:6]),
		SeatCapacity: 3,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed vehicle")
}

// seedOfferMissingPolyline inserts an active offer whose polyline column is
// empty, as left behind by a routing outage before the fallback existed.
func seedOfferMissingPolyline(t *testing.T, db *gorm.DB, offerID, driverID uuid.UUID) {
	t.Helper()
	now := time.Now().UTC()

	from, _ := json.Marshal(map[string]interface{}{
		"lat": 12.9716, "lng": 77.5946, "address": "Bengaluru",
	})
	to, _ := json.Marshal(map[string]interface{}{
		"lat": 13.0827, "lng": 80.2707, "address": "Chennai",
	})

	model := repository.OfferModel{
		ID:                offerID,
		OfferNumber:       fmt.Sprintf("RO-INT%s", uuid.New().String()[:4]),
		DriverID:          driverID,
		VehicleID:         uuid.New(),
		VehicleType:       "sedan",
		Status:            "active",
		FromLocation:      from,
		ToLocation:        to,
		Polyline:          "",
		DepartureAt:       now.Add(24 * time.Hour),
		SeatsTotal:        3,
		SeatsAvailable:    3,
		PricePerSeatCents: 120000,
		Currency:          "INR",
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed offer")
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForOfferPolyline polls the route_offers table until the offer carries a
// non-empty polyline.
func waitForOfferPolyline(t *testing.T, db *gorm.DB, offerID uuid.UUID, timeout time.Duration) repository.OfferModel {
	t.Helper()
	var result repository.OfferModel
	require.Eventually(t, func() bool {
		var model repository.OfferModel
		if err := db.Where("id = ?", offerID).First(&model).Error; err != nil {
			return false
		}
		if model.Polyline != "" {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "offer polyline was not populated")
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
