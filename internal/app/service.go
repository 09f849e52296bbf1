// Package service runs the extraction pipeline: it bootstraps reference
// data, discovers tournaments, fans one processing unit per player across a
// worker pool and aggregates the outcome into an artifact.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/okian/rosterpipe/internal/adapters/artifact"
	"github.com/okian/rosterpipe/internal/adapters/fetch"
	unitqueue "github.com/okian/rosterpipe/internal/adapters/mq/queue"
	workerpool "github.com/okian/rosterpipe/internal/adapters/mq/worker"
	"github.com/okian/rosterpipe/internal/adapters/pokedata"
	"github.com/okian/rosterpipe/internal/adapters/refdata"
	"github.com/okian/rosterpipe/internal/domain/legality"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/domain/roster"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// DefaultFormat is the format teams are validated against unless configured.
const DefaultFormat = "gen9vgc2025regh"

const opRun = "service.run"

// ReferenceStore provides versioned reference snapshots.
type ReferenceStore interface {
	DownloadOrUpdateAll(ctx context.Context, force bool) (refdata.Status, error)
	Load(ctx context.Context) (*refdata.Snapshot, error)
}

// PageCache provides tournament listings and division standings.
type PageCache interface {
	ListTournaments(ctx context.Context, limit int, force bool) ([]model.TournamentListing, error)
	FetchDivisionPage(ctx context.Context, tournamentID, division string, force bool) (pokedata.Result, error)
}

// Env is the explicitly constructed run context handed to every component.
type Env struct {
	CacheRoot     string
	ReferenceRoot string
	// Base URLs of the upstream hosts; empty keeps each adapter's default.
	PokeDataBaseURL string
	ShowdownBaseURL string
	KeepSnapshots   int
	Fetcher         fetch.Fetcher
	Logger          logger.Logger
}

// Request holds the parameters of one run.
type Request struct {
	Limit        int // 0 means unbounded
	Divisions    []string
	Workers      int // 0 uses the service default
	Output       string
	ForceRefresh bool
	Debug        bool
}

// Service is the extraction orchestrator.
type Service struct {
	refs  ReferenceStore
	pages PageCache

	format      string
	workerCount int
	now         func() time.Time
	runID       func() string

	logger logger.Logger
}

// New constructs a Service over the given stores.
func New(refs ReferenceStore, pages PageCache, opts ...Option) *Service {
	s := &Service{
		refs:        refs,
		pages:       pages,
		format:      DefaultFormat,
		workerCount: runtime.NumCPU(),
		now:         time.Now,
		runID:       uuid.NewString,
		logger:      logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewFromEnv wires the on-disk reference store and page cache described by
// env.
func NewFromEnv(env Env, opts ...Option) *Service {
	log := env.Logger
	if log == nil {
		log = logger.Nop()
	}
	fetcher := env.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(fetch.WithLogger(log.Named("fetch")))
	}

	refs := refdata.NewStore(env.ReferenceRoot, fetcher,
		refdata.WithBaseURL(env.ShowdownBaseURL),
		refdata.WithKeepSnapshots(env.KeepSnapshots),
		refdata.WithLogger(log.Named("refdata")),
	)
	pages := pokedata.New(env.CacheRoot, fetcher,
		pokedata.WithBaseURL(env.PokeDataBaseURL),
		pokedata.WithLogger(log.Named("pokedata")),
	)
	return New(refs, pages, append([]Option{WithLogger(log.Named("service"))}, opts...)...)
}

// Run executes one extraction. It fails on an invalid request, a bootstrap
// failure or when no tournament is discovered; every other failure is
// recorded in the artifact. When req.Output is set the artifact is written
// there, and a write failure is returned along with the artifact.
func (s *Service) Run(ctx context.Context, req Request) (model.Artifact, error) {
	divisions, err := normalizeDivisions(req.Divisions)
	if err != nil {
		return model.Artifact{}, err
	}
	if req.Limit < 0 {
		return model.Artifact{}, errs.Configuration(opRun, "limit", fmt.Errorf("must not be negative, got %d", req.Limit))
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.workerCount
	}

	start := s.now()
	runID := s.runID()
	s.logger.Info(ctx, "run started",
		logger.String("run_id", runID),
		logger.Int("limit", req.Limit),
		logger.String("divisions", strings.Join(divisions, ",")),
		logger.Int("workers", workers),
		logger.Bool("refresh", req.ForceRefresh),
	)

	snap, err := s.bootstrap(ctx, req.ForceRefresh)
	if err != nil {
		return model.Artifact{}, err
	}
	rules, err := snap.FormatRules(s.format)
	if err != nil {
		return model.Artifact{}, errs.Configuration(opRun, "format", err)
	}

	listings, err := s.pages.ListTournaments(ctx, req.Limit, req.ForceRefresh)
	if err != nil {
		return model.Artifact{}, fmt.Errorf("%w: %w", ErrNoTournaments, err)
	}
	if len(listings) == 0 {
		return model.Artifact{}, ErrNoTournaments
	}

	r := &run{
		svc:       s,
		trace:     s.tracer(req.Debug),
		snap:      snap,
		rules:     rules,
		resolver:  roster.New(roster.WithDefaultFormat(rules.ID), roster.WithLogger(s.logger.Named("roster"))),
		validator: legality.New(snap),
		pages:     newDivisionPages(s.pages, req.ForceRefresh),
		units:     map[*model.ProcessingUnit]*unitRun{},
	}
	r.expand(ctx, listings, divisions, workers)
	r.process(ctx, workers)

	var limit *int
	if req.Limit > 0 {
		limit = &req.Limit
	}
	out := r.aggregate(ctx)
	out.Meta = model.Meta{
		GeneratedAt:     s.now().UTC(),
		Limit:           limit,
		Divisions:       divisions,
		Refreshed:       req.ForceRefresh,
		RunID:           runID,
		Format:          rules.ID,
		SnapshotVersion: snap.Version(),
		Workers:         workers,
	}

	s.logger.Info(ctx, "run finished",
		logger.String("run_id", runID),
		logger.Int("tournaments", len(out.Tournaments)),
		logger.Int("units", len(r.order)),
		logger.Int("errors", len(out.Errors)),
		logger.Duration("elapsed", s.now().Sub(start)),
	)

	if req.Output != "" {
		if err := artifact.Write(req.Output, out); err != nil {
			return out, fmt.Errorf("%w: %w", ErrArtifactWrite, err)
		}
		s.logger.Info(ctx, "artifact written", logger.String("path", req.Output))
	}
	return out, nil
}

// bootstrap makes sure a snapshot exists and loads it for the whole run.
func (s *Service) bootstrap(ctx context.Context, force bool) (*refdata.Snapshot, error) {
	status, err := s.refs.DownloadOrUpdateAll(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	if status.Stale {
		s.logger.Warn(ctx, "reference refresh failed; using previous snapshot", logger.String("version", status.Version))
	}

	snap, err := s.refs.Load(ctx)
	if err != nil {
		// One forced refresh repairs a damaged snapshot.
		if !errors.Is(err, errs.ErrCacheCorruption) {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
		}
		s.logger.Warn(ctx, "reference snapshot is corrupt; refreshing", logger.Error(err))
		if _, rerr := s.refs.DownloadOrUpdateAll(ctx, true); rerr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, rerr)
		}
		if snap, err = s.refs.Load(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
		}
	}

	s.logger.Info(ctx, "reference data ready",
		logger.String("version", snap.Version()),
		logger.Bool("refreshed", status.Refreshed))
	return snap, nil
}

// tracer returns the log function for per-unit tracing. Debug runs trace at
// info level so the trace shows regardless of the configured level.
func (s *Service) tracer(debug bool) func(ctx context.Context, msg string, fields ...logger.Field) {
	if debug {
		return s.logger.Info
	}
	return s.logger.Debug
}

func normalizeDivisions(in []string) ([]string, error) {
	if len(in) == 0 {
		return []string{model.DivisionMasters}, nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if !model.IsDivision(d) {
			return nil, errs.Configuration(opRun, "divisions", fmt.Errorf("unknown division %q", d))
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// group is one (tournament, division) pair of the run.
type group struct {
	listing  model.TournamentListing
	division string
	stale    bool
	failed   *model.UnitError // page-level failure
	units    []*model.ProcessingUnit
}

// unitRun carries bookkeeping for one unit. Only the worker owning the unit
// writes to it.
type unitRun struct {
	group   *group
	elapsed time.Duration
}

// run is the state of one Service.Run call.
type run struct {
	svc       *Service
	trace     func(ctx context.Context, msg string, fields ...logger.Field)
	snap      *refdata.Snapshot
	rules     model.FormatRuleSet
	resolver  *roster.Resolver
	validator *legality.Validator
	pages     *divisionPages

	groups []*group
	order  []*model.ProcessingUnit
	units  map[*model.ProcessingUnit]*unitRun // read-only once workers start
}

// expand fetches every requested division page and creates one unit per
// listed player.
func (r *run) expand(ctx context.Context, listings []model.TournamentListing, divisions []string, workers int) {
	for _, l := range listings {
		for _, d := range divisions {
			if l.HasDivision(d) {
				r.groups = append(r.groups, &group{listing: l, division: d})
			}
		}
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, g := range r.groups {
		p.Go(func() {
			page := r.pages.get(ctx, g.listing.ID, g.division)
			g.stale = page.stale
			if page.err != nil {
				g.failed = &model.UnitError{
					Unit:   model.UnitKey{TournamentID: g.listing.ID, Division: g.division},
					Stage:  page.stage,
					Reason: page.err.Error(),
				}
				return
			}
			for i, row := range page.rows {
				key := model.UnitKey{TournamentID: g.listing.ID, Division: g.division, Player: row.Player().Name}
				g.units = append(g.units, model.NewUnit(key, i))
			}
		})
	}
	p.Wait()

	for _, g := range r.groups {
		if g.failed != nil {
			metrics.RecordUnit(string(model.StateFailed), string(g.failed.Stage), 0)
			r.svc.logger.Warn(ctx, "division unavailable",
				logger.String("tournament", g.listing.ID),
				logger.String("division", g.division),
				logger.String("reason", g.failed.Reason))
		}
		for _, u := range g.units {
			r.units[u] = &unitRun{group: g}
			r.order = append(r.order, u)
		}
	}
}

// process runs every unit through the worker pool and blocks until all are
// terminal.
func (r *run) process(ctx context.Context, workers int) {
	if len(r.order) == 0 {
		return
	}
	q := unitqueue.NewInMemoryQueue(unitqueue.WithCapacity(len(r.order)))
	for _, u := range r.order {
		if err := q.Enqueue(ctx, u); err != nil {
			_ = u.Fail(fmt.Sprintf("enqueue: %v", err))
		}
	}
	_ = q.Close()

	wp := workerpool.NewPool(workers, q, r, workerpool.WithLogger(r.svc.logger.Named("worker")))
	wp.Run(ctx)

	// Workers stop early on cancellation; whatever is left never started.
	for _, u := range r.order {
		if !u.Terminal() {
			_ = u.Fail("run cancelled")
		}
	}
}

// aggregate builds the artifact body in discovery order. Players are
// ordered by placing, unplaced last, then by name.
func (r *run) aggregate(ctx context.Context) model.Artifact {
	out := model.Artifact{
		Tournaments: make([]model.TournamentResult, 0, len(r.groups)),
		Errors:      []model.UnitError{},
	}
	for _, g := range r.groups {
		tr := model.TournamentResult{
			ID:       g.listing.ID,
			Name:     g.listing.Name,
			Division: g.division,
			Date:     g.listing.DateString(),
			Stale:    g.stale,
			Players:  []model.PlayerResult{},
		}
		if g.failed != nil {
			out.Errors = append(out.Errors, *g.failed)
		}
		for _, u := range g.units {
			stage, reason, failed := u.Failure()
			metrics.RecordUnit(string(u.State()), string(stage), float64(r.units[u].elapsed.Milliseconds()))
			if failed {
				out.Errors = append(out.Errors, model.UnitError{Unit: u.Key, Stage: stage, Reason: reason})
				continue
			}
			tr.Players = append(tr.Players, model.PlayerResult{
				Name:         u.Player.Name,
				Country:      u.Player.Country,
				Placing:      u.Player.Placing,
				Record:       u.Player.Record,
				ShowdownTeam: roster.Export(u.Team),
				Team:         u.Team.Builds,
				Legality:     model.NewLegality(u.Report),
			})
		}
		sort.SliceStable(tr.Players, func(i, j int) bool {
			a, b := tr.Players[i], tr.Players[j]
			if (a.Placing > 0) != (b.Placing > 0) {
				return a.Placing > 0
			}
			if a.Placing != b.Placing {
				return a.Placing < b.Placing
			}
			return a.Name < b.Name
		})
		out.Tournaments = append(out.Tournaments, tr)
	}
	r.trace(ctx, "results aggregated", logger.Int("tournaments", len(out.Tournaments)), logger.Int("errors", len(out.Errors)))
	return out
}
