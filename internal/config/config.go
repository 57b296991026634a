// Package config loads configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      int
	DBPath    string
	UploadDir string
	LogLevel  slog.Level
}

// Load reads .env (if present) and the process environment. Every value
// has a development-friendly default; nothing is required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	port := 8080
	if raw := getEnv("PORT", ""); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", raw, err)
		}
		port = p
	}

	return &Config{
		Port:      port,
		DBPath:    getEnv("DB_PATH", "data/feeds.db"),
		UploadDir: getEnv("UPLOAD_DIR", "data/uploads"),
		LogLevel:  parseLevel(getEnv("LOG_LEVEL", "info")),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
