// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// CatalogFromStorage as the catalog source loads the catalog published to storage
const CatalogFromStorage = "storage"

// Config holds server settings
type Config struct {
	Host     string `env:"TOWERDUEL_HOST"`
	Port     int    `env:"TOWERDUEL_PORT" envDefault:"8080"`
	LogLevel string `env:"TOWERDUEL_LOG_LEVEL" envDefault:"info"`

	// Catalog is a unit file, a directory of unit files, "storage", or empty
	// for the built-in catalog
	Catalog  string `env:"TOWERDUEL_CATALOG"`
	HandSize int    `env:"TOWERDUEL_HAND_SIZE" envDefault:"5"`

	StorageType  string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL"`
	HistoryLimit int    `env:"TOWERDUEL_HISTORY_LIMIT" envDefault:"1000"`

	AllowedOrigins []string `env:"TOWERDUEL_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads optional dotenv files into the environment, then parses it.
// Variables already set in the environment take precedence over dotenv files.
// Missing dotenv files are skipped.
func Load(dotenvFiles ...string) (Config, error) {
	for _, path := range dotenvFiles {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks settings that env parsing cannot
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.HandSize <= 0 {
		return fmt.Errorf("hand size must be positive, got %d", c.HandSize)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// DefaultDotenv is the dotenv file read from the working directory
const DefaultDotenv = ".env"
