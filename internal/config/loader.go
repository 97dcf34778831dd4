package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read outside the PERF_ key space.
const (
	EnvPrefix  = "PERF_"
	EnvConfig  = "PERF_CONFIG"
	EnvDotFile = "PERF_ENV_FILE"

	defaultDotFile = ".env"
	weightsKey     = "category_weights"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PERF_CONFIG is set
//  3. env (prefix PERF_), after loading a .env file if one exists
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PERF_QUEUE_SIZE -> queue_size. Underscores are kept to match the flat
	// koanf tags. PERF_CATEGORY_WEIGHTS takes "type:weight,type:weight".
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" || key == "env_file" {
			return "", nil
		}
		if key == weightsKey {
			weights, err := ParseWeights(value)
			if err != nil {
				return key, value
			}
			return key, weights
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if k.Exists(weightsKey) {
		// A configured table replaces the defaults instead of merging into them.
		cfg.CategoryWeights = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseWeights parses "technical:0.4,softskills:0.3" into a weight table.
func ParseWeights(s string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, raw, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: bad weight %q", ErrInvalidConfig, pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad weight %q: %w", ErrInvalidConfig, pair, err)
		}
		out[strings.TrimSpace(name)] = w
	}
	return out, nil
}

// loadDotEnv loads PERF_ENV_FILE, or .env, into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(EnvDotFile)
	if path == "" {
		path = defaultDotFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}
