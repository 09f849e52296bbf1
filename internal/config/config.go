// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) returns a Config holding every default.
//   - Load(ctx) layers a YAML file and ROSTERPIPE_* environment variables on
//     top of the defaults and validates the result.
//   - Validation failures wrap ErrInvalidConfig and classify as
//     configuration errors.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
)

const opValidate = "config.validate"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Debug traces cache hits, resolution steps and validation outcomes.
	Debug bool `koanf:"debug"`

	// CacheDir holds cached standings pages.
	CacheDir string `koanf:"cache_dir"`

	// ReferenceDir holds versioned reference data snapshots.
	ReferenceDir string `koanf:"reference_dir"`

	PokeDataBaseURL string `koanf:"pokedata_base_url"`
	ShowdownBaseURL string `koanf:"showdown_base_url"`

	// Format is the rule set teams are validated against.
	Format string `koanf:"format"`

	// Divisions to extract, e.g. [masters, seniors].
	Divisions []string `koanf:"divisions"`

	// Limit caps the number of tournaments; 0 means unbounded.
	Limit int `koanf:"limit"`

	// WorkerCount sets the number of unit workers.
	WorkerCount int `koanf:"worker_count"`

	// Output is the artifact path.
	Output string `koanf:"output"`

	// RefreshPokedata forces a refresh of reference data and cached pages.
	RefreshPokedata bool `koanf:"refresh_pokedata"`

	// HTTP client tuning.
	HTTPTimeoutMS     int     `koanf:"http_timeout_ms"`
	MaxRetries        int     `koanf:"max_retries"`
	RetryInitialMS    int     `koanf:"retry_initial_ms"`
	RetryMaxMS        int     `koanf:"retry_max_ms"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	UserAgent         string  `koanf:"user_agent"`

	// MetricsFile, when set, receives the Prometheus textfile dump of a run.
	MetricsFile string `koanf:"metrics_file"`

	// KeepSnapshots bounds how many reference snapshots stay on disk.
	KeepSnapshots int `koanf:"keep_snapshots"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		CacheDir:          "data/pokedata",
		ReferenceDir:      "data/showdown",
		PokeDataBaseURL:   "https://www.pokedata.ovh/standingsVGC",
		ShowdownBaseURL:   "https://play.pokemonshowdown.com/data",
		Format:            "gen9vgc2025regh",
		Divisions:         []string{model.DivisionMasters},
		WorkerCount:       runtime.NumCPU(),
		Output:            "tournament_teams.json",
		HTTPTimeoutMS:     30_000,
		MaxRetries:        4,
		RetryInitialMS:    500,
		RetryMaxMS:        8_000,
		RequestsPerSecond: 4,
		UserAgent:         "rosterpipe/1.0",
		KeepSnapshots:     3,
	}
}

// Validate normalizes divisions and rejects unusable values.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return errs.Configuration(opValidate, field, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	for field, v := range map[string]string{
		"cache_dir":         c.CacheDir,
		"reference_dir":     c.ReferenceDir,
		"output":            c.Output,
		"format":            c.Format,
		"pokedata_base_url": c.PokeDataBaseURL,
		"showdown_base_url": c.ShowdownBaseURL,
	} {
		if strings.TrimSpace(v) == "" {
			return invalid(field, "%s must not be empty", field)
		}
	}
	if c.Limit < 0 {
		return invalid("limit", "limit must not be negative, got %d", c.Limit)
	}
	if c.WorkerCount < 0 {
		return invalid("worker_count", "worker_count must not be negative, got %d", c.WorkerCount)
	}
	if c.MaxRetries < 1 {
		return invalid("max_retries", "max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.HTTPTimeoutMS < 0 || c.RetryInitialMS < 0 || c.RetryMaxMS < 0 {
		return invalid("http", "durations must not be negative")
	}
	if c.KeepSnapshots < 1 {
		return invalid("keep_snapshots", "keep_snapshots must be at least 1, got %d", c.KeepSnapshots)
	}

	divisions := make([]string, 0, len(c.Divisions))
	seen := map[string]bool{}
	for _, d := range c.Divisions {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		if !model.IsDivision(d) {
			return invalid("divisions", "unknown division %q (known: %s)", d, strings.Join(model.Divisions(), ", "))
		}
		seen[d] = true
		divisions = append(divisions, d)
	}
	if len(divisions) == 0 {
		return invalid("divisions", "at least one division is required")
	}
	c.Divisions = divisions
	return nil
}

// HTTPTimeout returns the per-request timeout.
func (c *Config) HTTPTimeout() time.Duration { return ms(c.HTTPTimeoutMS) }

// RetryInitial returns the first retry interval.
func (c *Config) RetryInitial() time.Duration { return ms(c.RetryInitialMS) }

// RetryMax returns the retry interval cap.
func (c *Config) RetryMax() time.Duration { return ms(c.RetryMaxMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
