package config

import (
	"time"

	"github.com/staybook/service-booking/internal/cache"
	"github.com/staybook/service-booking/pkg/config"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	DBConfig        config.DatabaseConfig
	JWTConfig       config.JWTConfig
	KafkaConfig     config.KafkaConfig
	RedisConfig     config.RedisConfig
	RedisEnabled    bool
	CacheConfig     cache.Config
	TracingEndpoint string
}

// Load reads configuration from BOOKING_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	defaults := cache.DefaultConfig()
	v.SetDefault("DB_NAME", "staybook_booking")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("CACHE_LOCAL_MAX_SIZE", defaults.LocalMaxSize)
	v.SetDefault("CACHE_LOCAL_TTL", defaults.LocalTTL)
	v.SetDefault("CACHE_REMOTE_TTL", defaults.RemoteTTL)
	v.SetDefault("TRACING_ENDPOINT", "")

	return &ServiceConfig{
		Port:         config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:       config.GetAppEnv(v),
		DBConfig:     config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:    config.LoadJWTConfig(v),
		KafkaConfig:  config.LoadKafkaConfig(v),
		RedisConfig:  config.LoadRedisConfig(v),
		RedisEnabled: v.GetBool("REDIS_ENABLED"),
		CacheConfig: cache.Config{
			LocalMaxSize: v.GetInt64("CACHE_LOCAL_MAX_SIZE"),
			LocalTTL:     durationOr(v.GetDuration("CACHE_LOCAL_TTL"), defaults.LocalTTL),
			RemoteTTL:    durationOr(v.GetDuration("CACHE_REMOTE_TTL"), defaults.RemoteTTL),
		},
		TracingEndpoint: v.GetString("TRACING_ENDPOINT"),
	}, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
