package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/rosterpipe/internal/adapters/pokedata"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/domain/roster"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// divisionPage is a fetched and decoded standings document.
type divisionPage struct {
	rows  []pokedata.Standing
	stale bool
	err   error
	stage model.State // where err happened
}

// divisionPages fetches and decodes each division document once per run.
type divisionPages struct {
	cache PageCache
	force bool
	group singleflight.Group

	mu   sync.Mutex
	done map[string]divisionPage
}

func newDivisionPages(cache PageCache, force bool) *divisionPages {
	return &divisionPages{cache: cache, force: force, done: map[string]divisionPage{}}
}

func (d *divisionPages) get(ctx context.Context, tournamentID, division string) divisionPage {
	key := tournamentID + "/" + division

	d.mu.Lock()
	page, ok := d.done[key]
	d.mu.Unlock()
	if ok {
		return page
	}

	v, _, _ := d.group.Do(key, func() (any, error) {
		page := d.load(ctx, tournamentID, division)
		d.mu.Lock()
		d.done[key] = page
		d.mu.Unlock()
		return page, nil
	})
	return v.(divisionPage)
}

func (d *divisionPages) load(ctx context.Context, tournamentID, division string) divisionPage {
	res, err := d.cache.FetchDivisionPage(ctx, tournamentID, division, d.force)
	if err == nil && !res.OK() {
		err = res.Err
	}
	if err != nil {
		return divisionPage{err: err, stage: model.StateFetching}
	}
	rows, err := pokedata.DecodeDivision(res.Entry.Payload)
	if err != nil {
		return divisionPage{err: err, stage: model.StateParsing, stale: res.Stale}
	}
	return divisionPage{rows: rows, stale: res.Stale}
}

// Process drives one unit through every stage. It implements the worker
// pool's Processor; any failure is recorded on the unit.
func (r *run) Process(ctx context.Context, u *model.ProcessingUnit) {
	start := time.Now()
	defer func() { r.units[u].elapsed = time.Since(start) }()

	stages := []struct {
		state model.State
		fn    func(context.Context, *model.ProcessingUnit) error
	}{
		{model.StateFetching, r.fetching},
		{model.StateParsing, r.parsing},
		{model.StateResolving, r.resolving},
		{model.StateValidating, r.validating},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			_ = u.Fail(fmt.Sprintf("cancelled: %v", err))
			return
		}
		if err := u.Advance(st.state); err != nil {
			_ = u.Fail(err.Error())
			return
		}
		if err := st.fn(ctx, u); err != nil {
			_ = u.Fail(err.Error())
			r.trace(ctx, "unit failed",
				logger.String("unit", u.Key.String()),
				logger.String("stage", string(st.state)),
				logger.Error(err))
			return
		}
	}
	if err := u.Advance(model.StateDone); err != nil {
		_ = u.Fail(err.Error())
		return
	}
	r.trace(ctx, "unit done",
		logger.String("unit", u.Key.String()),
		logger.Bool("legal", u.Report.Legal()),
		logger.Int("issues", len(u.Report.Issues)))
}

// fetching renders the player's decklist into roster text.
func (r *run) fetching(ctx context.Context, u *model.ProcessingUnit) error {
	page := r.pages.get(ctx, u.Key.TournamentID, u.Key.Division)
	if page.err != nil {
		return page.err
	}
	if u.Index < 0 || u.Index >= len(page.rows) {
		return errs.NotFound("service.fetch", u.Key.String())
	}
	row := page.rows[u.Index]
	u.Player = row.Player()
	u.RosterText = roster.Export(row.Team())
	return nil
}

func (r *run) parsing(ctx context.Context, u *model.ProcessingUnit) error {
	team, err := r.resolver.ParseRoster(ctx, u.RosterText)
	if err != nil {
		return err
	}
	u.Team = team
	return nil
}

// resolving replaces every name with its canonical record. An unknown
// species fails the unit; unknown moves, items and abilities become error
// issues that validation reports alongside its own.
func (r *run) resolving(ctx context.Context, u *model.ProcessingUnit) error {
	var issues []model.LegalityIssue
	unknown := func(code, what, name, species string) {
		issues = append(issues, model.LegalityIssue{
			Code:     code,
			Message:  fmt.Sprintf("unknown %s %q on %s", what, name, species),
			Severity: model.SeverityError,
		})
	}

	for i := range u.Team.Builds {
		b := &u.Team.Builds[i]
		sp, err := r.snap.ResolveSpecies(b.Species)
		if err != nil {
			return fmt.Errorf("resolve species %q: %w", b.Species, err)
		}
		r.trace(ctx, "species resolved", logger.String("input", b.Species), logger.String("species", sp.Name))
		b.Species, b.SpeciesID = sp.Name, sp.ID
		b.ValidFormats = r.snap.ValidFormats(sp.ID)

		if b.Item != "" {
			if it, err := r.snap.ResolveItem(b.Item); err == nil {
				b.Item, b.ItemID = it.Name, it.ID
			} else if errors.Is(err, errs.ErrNotFound) {
				unknown(model.CodeUnknownItem, "item", b.Item, b.Species)
			} else {
				return err
			}
		}
		if b.Ability != "" {
			if ab, err := r.snap.ResolveAbility(b.Ability); err == nil {
				b.Ability, b.AbilityID = ab.Name, ab.ID
			} else if errors.Is(err, errs.ErrNotFound) {
				unknown(model.CodeUnknownAbility, "ability", b.Ability, b.Species)
			} else {
				return err
			}
		}
		b.MoveIDs = make([]string, len(b.Moves))
		for j, m := range b.Moves {
			mv, err := r.snap.ResolveMove(m)
			switch {
			case err == nil:
				b.Moves[j], b.MoveIDs[j] = mv.Name, mv.ID
			case errors.Is(err, errs.ErrNotFound):
				unknown(model.CodeUnknownMove, "move", m, b.Species)
			default:
				return err
			}
		}
	}
	u.Report = model.ValidationReport{Issues: issues}
	return nil
}

func (r *run) validating(ctx context.Context, u *model.ProcessingUnit) error {
	report := r.validator.Validate(u.Team, r.rules)
	issues := append(u.Report.Issues, report.Issues...)
	u.Report = model.ValidationReport{Team: &u.Team, Issues: issues}

	for _, is := range issues {
		metrics.RecordValidationIssue(is.Code, string(is.Severity))
		r.trace(ctx, "legality issue",
			logger.String("unit", u.Key.String()),
			logger.String("code", is.Code),
			logger.String("severity", string(is.Severity)),
			logger.String("message", is.Message))
	}
	metrics.RecordTeamValidated(u.Report.Legal())
	return nil
}
