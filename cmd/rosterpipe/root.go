package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/rosterpipe/internal/adapters/fetch"
	service "github.com/okian/rosterpipe/internal/app"
	"github.com/okian/rosterpipe/internal/config"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitConfig    = 2
	exitBootstrap = 3
)

// deps are the process collaborators; tests replace them.
type deps struct {
	stdout  io.Writer
	stderr  io.Writer
	fetcher fetch.Fetcher // nil builds an HTTP fetcher from config
	logger  logger.Logger // nil uses the global logger
}

// flags holds command-line overrides. Only flags that were set override the
// loaded configuration.
type flags struct {
	limit           int
	divisions       []string
	output          string
	workers         int
	debug           bool
	refreshPokedata bool
	format          string
	cacheDir        string
	referenceDir    string
	metricsFile     string
}

func execute(ctx context.Context, args []string, d deps) int {
	cmd := newRootCmd(d)
	cmd.SetArgs(args)
	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(d.stderr, "rosterpipe:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errs.ErrConfiguration):
		return exitConfig
	case errors.Is(err, service.ErrBootstrap), errors.Is(err, service.ErrNoTournaments):
		return exitBootstrap
	default:
		return exitFailure
	}
}

func newRootCmd(d deps) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "rosterpipe",
		Short:         "Extract and validate tournament teams from public standings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, d, f)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errs.Configuration("cli", "flags", err)
	})

	fs := cmd.Flags()
	fs.IntVar(&f.limit, "limit", 0, "maximum number of tournaments to process (0 = all)")
	fs.StringSliceVar(&f.divisions, "divisions", nil, "divisions to extract: masters, seniors, juniors")
	fs.StringVarP(&f.output, "output", "o", "", "artifact path (default tournament_teams.json)")
	fs.IntVar(&f.workers, "workers", 0, "worker pool size (default: number of CPUs)")
	fs.BoolVar(&f.debug, "debug", false, "trace cache hits, resolution steps and validation outcomes")
	fs.BoolVar(&f.refreshPokedata, "refresh-pokedata", false, "force-refresh reference data and cached standings")
	fs.StringVar(&f.format, "format", "", "format id teams are validated against")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "standings cache directory")
	fs.StringVar(&f.referenceDir, "reference-dir", "", "reference data directory")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	return cmd
}

func runPipeline(cmd *cobra.Command, d deps, f flags) error {
	ctx := cmd.Context()

	// Load configuration (defaults -> optional file -> env -> flags)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log := d.logger
	if log == nil {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		log = logger.Get()
		// Apply configured log level (fallback to info on invalid input)
		if err := logger.SetLevelString(level); err != nil {
			log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
	}

	fetcher := d.fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(
			fetch.WithTimeout(cfg.HTTPTimeout()),
			fetch.WithMaxAttempts(cfg.MaxRetries),
			fetch.WithBackoff(cfg.RetryInitial(), cfg.RetryMax()),
			fetch.WithRequestsPerSecond(cfg.RequestsPerSecond),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithLogger(log.Named("fetch")),
		)
	}

	svc := service.NewFromEnv(service.Env{
		CacheRoot:       cfg.CacheDir,
		ReferenceRoot:   cfg.ReferenceDir,
		PokeDataBaseURL: cfg.PokeDataBaseURL,
		ShowdownBaseURL: cfg.ShowdownBaseURL,
		KeepSnapshots:   cfg.KeepSnapshots,
		Fetcher:         fetcher,
		Logger:          log,
	},
		service.WithFormat(cfg.Format),
		service.WithWorkerCount(cfg.WorkerCount),
	)

	a, runErr := svc.Run(ctx, service.Request{
		Limit:        cfg.Limit,
		Divisions:    cfg.Divisions,
		Workers:      cfg.WorkerCount,
		Output:       cfg.Output,
		ForceRefresh: cfg.RefreshPokedata,
		Debug:        cfg.Debug,
	})

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "writing metrics file failed", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	players := 0
	for _, t := range a.Tournaments {
		players += len(t.Players)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d tournament divisions, %d teams, %d errors\n",
		cfg.Output, len(a.Tournaments), players, len(a.Errors))
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags) {
	fs := cmd.Flags()
	if fs.Changed("limit") {
		cfg.Limit = f.limit
	}
	if fs.Changed("divisions") {
		cfg.Divisions = f.divisions
	}
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("workers") {
		cfg.WorkerCount = f.workers
	}
	if fs.Changed("debug") {
		cfg.Debug = f.debug
	}
	if fs.Changed("refresh-pokedata") {
		cfg.RefreshPokedata = f.refreshPokedata
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if fs.Changed("reference-dir") {
		cfg.ReferenceDir = f.referenceDir
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
}
