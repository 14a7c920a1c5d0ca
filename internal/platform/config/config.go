package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	GraderBaseURL string
	GraderAPIKey  string
	GraderModel   string
	GraderTimeout time.Duration

	MaxUploadBytes int64

	EnableOutboxRelay      bool
	EnableRubricProjection bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "intelligrade"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	model := os.Getenv("GRADER_MODEL")
	if model == "" {
		model = "google/gemini-2.5-flash"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		GraderBaseURL: os.Getenv("GRADER_BASE_URL"),
		GraderAPIKey:  os.Getenv("GRADER_API_KEY"),
		GraderModel:   model,
		GraderTimeout: envDuration("GRADER_TIMEOUT", 2*time.Minute),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20*1024*1024),

		EnableOutboxRelay:      envBool("ENABLE_OUTBOX_RELAY", true),
		EnableRubricProjection: envBool("ENABLE_RUBRIC_PROJECTION", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
