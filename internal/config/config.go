// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log output from text to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the storage backend: memory, postgres or mongo.
	Store string `koanf:"store"`

	// PostgresDSN is required when Store is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// DebugSQL logs every SQL statement issued by the postgres backend.
	DebugSQL bool `koanf:"debug_sql"`

	// MongoURI is required when Store is mongo.
	MongoURI string `koanf:"mongo_uri"`

	// MongoDatabase names the database holding the record collections.
	MongoDatabase string `koanf:"mongo_database"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WriteAttempts is how many times a worker tries to persist a record.
	WriteAttempts int `koanf:"write_attempts"`

	// CategoryWeights maps assessment types to their weight in the overall
	// score. Unlisted types weigh 0.
	CategoryWeights map[string]float64 `koanf:"category_weights"`

	// ReadTimeoutMS bounds a single performance computation.
	ReadTimeoutMS int `koanf:"read_timeout_ms"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		Store:         repository.BackendMemory,
		MongoDatabase: "talentscore",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU(),
		DedupeSize:    50_000,
		WriteAttempts: 3,
		CategoryWeights: map[string]float64{
			"technical":  scoring.DefaultTechnicalWeight,
			"softskills": scoring.DefaultSoftSkillsWeight,
			"industry":   scoring.DefaultIndustryWeight,
		},
		ReadTimeoutMS: 5_000,
	}
}

// ReadTimeout returns ReadTimeoutMS as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.WriteAttempts <= 0:
		return fmt.Errorf("%w: write_attempts must be positive", ErrInvalidConfig)
	case c.ReadTimeoutMS < 0:
		return fmt.Errorf("%w: read_timeout_ms must not be negative", ErrInvalidConfig)
	}

	switch c.Store {
	case repository.BackendMemory:
	case repository.BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
		}
	case repository.BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: mongo_uri is required for the mongo store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}

	for category, w := range c.CategoryWeights {
		if w < 0 {
			return fmt.Errorf("%w: weight of %q must not be negative", ErrInvalidConfig, category)
		}
	}
	return nil
}
