package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string

	// API is the storefront backend the gateway talks to.
	API APIConfig

	// Snapshot is the guest cart persistence slot.
	Snapshot SnapshotConfig
}

type APIConfig struct {
	BaseURL string

	// Token authenticates cart endpoints. Empty means a guest session.
	Token string

	// TokenPath is read when Token is unset (the stored credential slot).
	TokenPath string

	Timeout time.Duration
}

type SnapshotConfig struct {
	// Path is the guest cart snapshot file, one per browser-profile
	// equivalent (here: per OS user).
	Path string
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL:   getEnv("OSTARA_API_URL", "http://localhost:3000"),
			Token:     getEnv("OSTARA_API_TOKEN", ""),
			TokenPath: getEnv("OSTARA_TOKEN_PATH", defaultProfilePath("token")),
			Timeout:   getEnvDuration("OSTARA_API_TIMEOUT", 30*time.Second),
		},
		Snapshot: SnapshotConfig{
			Path: getEnv("OSTARA_CART_PATH", defaultProfilePath("cart.json")),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("OSTARA_API_URL must be set")
	}

	return cfg, nil
}

// defaultProfilePath resolves a slot under the per-user config directory.
func defaultProfilePath(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".ostara", name)
	}
	return filepath.Join(base, "ostara", name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
