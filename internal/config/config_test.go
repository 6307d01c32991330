package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "staybook_booking", cfg.DBConfig.DBName)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, time.Minute, cfg.CacheConfig.LocalTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BOOKING_SERVICE_PORT", "9090")
	t.Setenv("BOOKING_DB_NAME", "bookings_test")
	t.Setenv("BOOKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("BOOKING_REDIS_ENABLED", "true")
	t.Setenv("BOOKING_CACHE_LOCAL_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "bookings_test", cfg.DBConfig.DBName)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 30*time.Second, cfg.CacheConfig.LocalTTL)
}
