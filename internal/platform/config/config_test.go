package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":5001", cfg.Addr)
	assert.Equal(t, "medilink", cfg.JWTIssuer)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MEDILINK_ADDR", ":9000")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("REDIS_POOL_SIZE", "25")

	cfg := FromEnv()

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 25, cfg.Redis.PoolSize)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("REDIS_POOL_SIZE", "many")

	cfg := FromEnv()

	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
