package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/rosterpipe/internal/errs"
)

// Environment variable names.
const (
	EnvPrefix = "ROSTERPIPE_"
	EnvConfig = EnvPrefix + "CONFIG"

	opLoad = "config.load"
)

// listKeys are split on commas when given through the environment.
var listKeys = map[string]bool{"divisions": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ROSTERPIPE_CONFIG is set
//  3. env (prefix ROSTERPIPE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.Configuration(opLoad, path, fmt.Errorf("%w: %w", ErrLoadConfig, err))
		}
	}

	// Environment variables: ROSTERPIPE_CACHE_DIR -> cache_dir (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.Configuration(opLoad, "env", fmt.Errorf("%w: %w", ErrLoadConfig, err))
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.Configuration(opLoad, "unmarshal", fmt.Errorf("%w: %w", ErrLoadConfig, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
