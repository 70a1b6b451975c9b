package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingToken is a hard startup condition: without the telemetry token
// every remote call would fail, so the process refuses to start with a clear
// message instead of failing silently on each request.
var ErrMissingToken = errors.New("TELEMETRY_API_TOKEN is not set; all remote calls are disabled without it")

// Config carries the process configuration. It is built once at startup from
// the environment and read-only afterwards; components receive it by value
// so tests can swap it freely.
type Config struct {
	Port             string
	PathPrefix       string
	TelemetryBaseURL string
	TelemetryToken   string
	TelemetryTimeout time.Duration
	MapAPIKey        string
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		PathPrefix:       getEnv("PATH_PREFIX", ""),
		TelemetryBaseURL: getEnv("TELEMETRY_API_URL", "http://localhost:8081"),
		TelemetryToken:   os.Getenv("TELEMETRY_API_TOKEN"),
		TelemetryTimeout: getEnvDuration("TELEMETRY_TIMEOUT", "10s"),
		MapAPIKey:        os.Getenv("MAP_API_KEY"),
	}

	if cfg.TelemetryToken == "" {
		return cfg, ErrMissingToken
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
