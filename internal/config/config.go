package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// NLP backend configuration
	BackendURL   string
	ChatTimeout  time.Duration
	ProbeTimeout time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	// Session storage configuration
	RedisURL   string
	SessionTTL time.Duration

	// NATS configuration (optional front-end transport)
	NatsURL           string
	NatsSubjectPrefix string
	NatsTimeout       time.Duration

	// HTTP gateway configuration
	HTTPAddr      string
	AllowedOrigin string

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// Backend settings
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:5005"),
		ChatTimeout:  getDurationEnv("CHAT_TIMEOUT", 60*time.Second),
		ProbeTimeout: getDurationEnv("PROBE_TIMEOUT", 10*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 2),
		RetryDelay:   getDurationEnv("RETRY_DELAY", 2*time.Second),

		// Session settings
		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// NATS settings
		NatsURL:           getEnv("NATS_URL", ""),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "maintenance"),
		NatsTimeout:       getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// HTTP settings
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "maintenance-assistant"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}
