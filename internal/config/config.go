// Package config reads server and storage settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aretw0/trialset/internal/logging"
	"github.com/aretw0/trialset/pkg/adapters/file"
	"github.com/aretw0/trialset/pkg/adapters/memory"
	"github.com/aretw0/trialset/pkg/adapters/redis"
	"github.com/aretw0/trialset/pkg/adapters/sqlite"
	"github.com/aretw0/trialset/pkg/ports"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds environment-provided settings. Flags take precedence where both exist.
type Config struct {
	Store         string        `env:"TRIALSET_STORE" envDefault:"file"`
	FileDir       string        `env:"TRIALSET_FILE_DIR" envDefault:".trialset/plans"`
	SQLitePath    string        `env:"TRIALSET_SQLITE_PATH" envDefault:".trialset/plans.db"`
	RedisAddr     string        `env:"TRIALSET_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"TRIALSET_REDIS_PASSWORD"`
	RedisDB       int           `env:"TRIALSET_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"TRIALSET_REDIS_TTL" envDefault:"0s"`
	Port          int           `env:"TRIALSET_PORT" envDefault:"8080"`
	LogLevel      string        `env:"TRIALSET_LOG_LEVEL" envDefault:"info"`
	MaxInputSize  int           `env:"TRIALSET_MAX_INPUT_SIZE" envDefault:"4096"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the configured plan store. The returned closer releases
// its connections and is never nil.
func (c Config) OpenStore() (ports.PlanStore, io.Closer, error) {
	switch c.Store {
	case StoreMemory:
		return memory.NewStore(), nopCloser{}, nil
	case StoreFile, "":
		return file.NewStore(c.FileDir), nopCloser{}, nil
	case StoreRedis:
		opts := []redis.Option{}
		if c.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(c.RedisTTL))
		}
		s := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB, opts...)
		return s, s, nil
	case StoreSQLite:
		s, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
}
