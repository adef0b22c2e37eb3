package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	OTP      OTPConfig

	// UploadDir is where doctor license documents are persisted.
	UploadDir string

	// SessionTTL bounds how long an abandoned registration wizard session
	// survives before expiring.
	SessionTTL time.Duration

	// OTPRequestTimeout caps calls to the phone-verification provider.
	OTPRequestTimeout time.Duration
}

// RedisConfig holds connection settings for the session/token stores.
// An empty URL means Redis is not configured and memory stores are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the user/patient/doctor store DSN. Empty means memory
// stores are used.
type PostgresConfig struct {
	URL string
}

// OTPConfig holds phone-verification provider settings. An empty BaseURL
// selects the local development provider, which logs codes instead of
// sending SMS.
type OTPConfig struct {
	BaseURL string
	APIKey  string
}

// KafkaConfig holds audit publishing settings. No brokers means audit events
// only go to the log.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds the config from environment variables with development
// defaults. Production deployments must override JWT_SIGNING_KEY.
func FromEnv() Config {
	return Config{
		Addr:              getEnv("MEDILINK_ADDR", ":5001"),
		JWTSigningKey:     getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         getEnv("JWT_ISSUER", "medilink"),
		TokenTTL:          getDuration("TOKEN_TTL", 30*24*time.Hour),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads/licenses"),
		SessionTTL:        getDuration("SESSION_TTL", time.Hour),
		OTPRequestTimeout: getDuration("OTP_REQUEST_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		OTP: OTPConfig{
			BaseURL: os.Getenv("OTP_PROVIDER_URL"),
			APIKey:  os.Getenv("OTP_PROVIDER_API_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "medilink.audit"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
