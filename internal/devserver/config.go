package devserver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the dev server settings, read from the environment.
type Config struct {
	Addr      string
	JWTSecret string
	// RedisURL selects the Redis session registry; empty keeps sessions in memory.
	RedisURL  string
	Heartbeat time.Duration
	LogLevel  slog.Level
}

// SessionTTL is how long a session survives without a heartbeat.
func (c Config) SessionTTL() time.Duration {
	return 3 * c.Heartbeat
}

// LoadConfig reads envFile (when present) into the environment, then
// builds the config from environment variables.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Addr:      getenv("SOMMELIER_ADDR", "127.0.0.1:8787"),
		JWTSecret: getenv("SOMMELIER_JWT_SECRET", "sommelier-dev-secret"),
		RedisURL:  strings.TrimSpace(getenv("REDIS_URL", "")),
		Heartbeat: time.Duration(getenvInt("SOMMELIER_HEARTBEAT_SECONDS", 60)) * time.Second,
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("SOMMELIER_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("SOMMELIER_LOG_LEVEL: %w", err)
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 60 * time.Second
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
