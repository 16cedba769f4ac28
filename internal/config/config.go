// Package config loads service configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ridepool/service-offers/internal/pkg/database"
)

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RoutingConfig holds the OSRM endpoint and route cache settings.
type RoutingConfig struct {
	OSRMBaseURL string
	Timeout     time.Duration
	RedisAddr   string
	CacheTTL    time.Duration
}

// MatchingConfig holds the route compatibility thresholds.
type MatchingConfig struct {
	MaxOffRouteKm    float64
	LengthRatioSlack float64
	WorkerPoolSize   int
}

// ServiceConfig holds all configuration for the offers service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	RoutingConfig  RoutingConfig
	MatchingConfig MatchingConfig
}

// Load reads configuration from OFFERS_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("OFFERS")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "offers")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "ridepool.")
	v.SetDefault("OSRM_BASE_URL", "http://localhost:5000")
	v.SetDefault("OSRM_TIMEOUT_SECONDS", 5)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("ROUTE_CACHE_TTL_HOURS", 24)
	v.SetDefault("MAX_OFF_ROUTE_KM", 3.0)
	v.SetDefault("LENGTH_RATIO_SLACK", 1.1)
	v.SetDefault("MATCH_WORKER_POOL_SIZE", 8)

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RoutingConfig: RoutingConfig{
			OSRMBaseURL: v.GetString("OSRM_BASE_URL"),
			Timeout:     time.Duration(v.GetInt("OSRM_TIMEOUT_SECONDS")) * time.Second,
			RedisAddr:   v.GetString("REDIS_ADDR"),
			CacheTTL:    time.Duration(v.GetInt("ROUTE_CACHE_TTL_HOURS")) * time.Hour,
		},
		MatchingConfig: MatchingConfig{
			MaxOffRouteKm:    v.GetFloat64("MAX_OFF_ROUTE_KM"),
			LengthRatioSlack: v.GetFloat64("LENGTH_RATIO_SLACK"),
			WorkerPoolSize:   v.GetInt("MATCH_WORKER_POOL_SIZE"),
		},
	}, nil
}
