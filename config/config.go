package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration fields for the application.
type Config struct {
	BackendURL       string        // base URL of the remote conversation service
	DBPath           string        // path to the local sqlite file backing the durable store
	Port             string        // HTTP listen port for the presentation API
	ProbeURL         string        // optional URL polled to derive connectivity; empty disables probing
	ProbeInterval    time.Duration // how often the probe runs
	RequestTimeout   time.Duration // per-request timeout for the conversation service
	DrainMaxAttempts int           // per-envelope attempt cap during drains; 0 retries forever
	DefaultLanguage  string        // language used before any submission carries a hint
	LogLevel         string
	LogFormat        string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present; environment variables
// take precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		BackendURL:      os.Getenv("BACKEND_URL"),
		DBPath:          os.Getenv("DB_PATH"),
		Port:            os.Getenv("PORT"),
		ProbeURL:        os.Getenv("PROBE_URL"),
		DefaultLanguage: os.Getenv("DEFAULT_LANGUAGE"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		LogFormat:       os.Getenv("LOG_FORMAT"),
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL must be set")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "bazachat.db"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Info().Str("port", cfg.Port).Msg("PORT not set, using default")
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}

	var err error
	cfg.ProbeInterval, err = durationEnv("PROBE_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	if raw := os.Getenv("DRAIN_MAX_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid DRAIN_MAX_ATTEMPTS %q", raw)
		}
		cfg.DrainMaxAttempts = n
	}

	return cfg, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}
