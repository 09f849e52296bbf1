package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/rosterpipe/internal/adapters/artifact"
	service "github.com/okian/rosterpipe/internal/app"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/internal/testutil"
	"github.com/okian/rosterpipe/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	fetcher *testutil.FakeFetcher
	dir     string
}

func newFixture(t *testing.T) *fixture {
	f := testutil.NewFakeFetcher()
	testutil.ServeShowdown(f, testutil.ShowdownBaseURL)
	testutil.ServePokeData(f)
	return &fixture{fetcher: f, dir: t.TempDir()}
}

func (fx *fixture) service(opts ...service.Option) *service.Service {
	return fx.serviceWithLogger(logger.Nop(), opts...)
}

func (fx *fixture) serviceWithLogger(l logger.Logger, opts ...service.Option) *service.Service {
	env := service.Env{
		CacheRoot:       filepath.Join(fx.dir, "pokedata"),
		ReferenceRoot:   filepath.Join(fx.dir, "showdown"),
		PokeDataBaseURL: testutil.PokeDataBaseURL,
		ShowdownBaseURL: testutil.ShowdownBaseURL,
		Fetcher:         fx.fetcher,
		Logger:          l,
	}
	opts = append([]service.Option{
		service.WithFormat(testutil.FormatRegH),
		service.WithWorkerCount(3),
		service.WithRunID(func() string { return "run-test" }),
	}, opts...)
	return service.NewFromEnv(env, opts...)
}

func codes(issues []model.LegalityIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestRunIsolatesUnitFailures(t *testing.T) {
	ctx := context.Background()

	Convey("Given two cached tournaments where one roster is malformed", t, func() {
		fx := newFixture(t)
		out := filepath.Join(fx.dir, "out", "teams.json")

		Convey("When running with limit 2 over masters", func() {
			a, err := fx.service().Run(ctx, service.Request{
				Limit:     2,
				Divisions: []string{"masters"},
				Output:    out,
			})
			So(err, ShouldBeNil)

			Convey("Then both tournaments are reported newest first", func() {
				So(a.Tournaments, ShouldHaveLength, 2)
				So(a.Tournaments[0].ID, ShouldEqual, testutil.TournamentNAIC)
				So(a.Tournaments[0].Date, ShouldEqual, "2025-06-13")
				So(a.Tournaments[1].ID, ShouldEqual, testutil.TournamentLille)
				So(a.Tournaments[1].Division, ShouldEqual, "masters")
			})

			Convey("Then exactly one unit failed, at Parsing", func() {
				So(a.Errors, ShouldHaveLength, 1)
				e := a.Errors[0]
				So(e.Stage, ShouldEqual, model.StateParsing)
				So(e.Unit, ShouldResemble, model.UnitKey{TournamentID: testutil.TournamentNAIC, Division: "masters", Player: "Carol Sample"})
				So(e.Reason, ShouldContainSubstring, "distinct moves")
			})

			Convey("Then surviving players are ordered by placing", func() {
				players := a.Tournaments[0].Players
				So(players, ShouldHaveLength, 2)
				So(players[0].Name, ShouldEqual, "Alice Example")
				So(players[0].Country, ShouldEqual, "US")
				So(players[1].Name, ShouldEqual, "Bob Tester")
				So(players[1].Record, ShouldResemble, &model.Record{Wins: 11, Losses: 3, Ties: 1})
			})

			Convey("Then names are canonical and legality is reported", func() {
				alice := a.Tournaments[0].Players[0]
				So(alice.Legality.Legal, ShouldBeTrue)
				So(alice.Legality.Issues, ShouldBeEmpty)
				So(alice.Team[4].Species, ShouldEqual, "Slowbro-Galar")
				So(alice.Team[4].Level, ShouldEqual, 50)

				bob := a.Tournaments[0].Players[1]
				So(bob.Legality.Legal, ShouldBeFalse)
				got := codes(bob.Legality.Issues)
				So(got, ShouldContain, model.CodeSpeciesBanned)
				So(got, ShouldContain, model.CodeMoveIllegal)
				So(got, ShouldContain, model.CodeItemDuplicate)
				So(got, ShouldContain, model.CodeSpeciesDuplicate)
			})

			Convey("Then each player carries an importable team and per-Pokémon formats", func() {
				alice := a.Tournaments[0].Players[0]
				So(alice.ShowdownTeam, ShouldStartWith, "Incineroar @ Sitrus Berry\nAbility: Intimidate\nLevel: 50\nTera Type: Grass\n- Fake Out\n")
				So(alice.ShowdownTeam, ShouldContainSubstring, "\n\nSlowbro-Galar @ Mental Herb\n")
				So(alice.Team[0].ValidFormats, ShouldResemble, []string{"gen8vgc2022", "gen9vgc2025regg", "gen9vgc2025regh"})

				bob := a.Tournaments[0].Players[1]
				So(bob.Team[0].Species, ShouldEqual, "Flutter Mane")
				So(bob.Team[0].ValidFormats, ShouldNotContain, testutil.FormatRegH)
			})

			Convey("Then the meta block describes the run", func() {
				So(*a.Meta.Limit, ShouldEqual, 2)
				So(a.Meta.Divisions, ShouldResemble, []string{"masters"})
				So(a.Meta.Refreshed, ShouldBeFalse)
				So(a.Meta.RunID, ShouldEqual, "run-test")
				So(a.Meta.Format, ShouldEqual, testutil.FormatRegH)
				So(a.Meta.SnapshotVersion, ShouldNotBeEmpty)
				So(a.Meta.Workers, ShouldEqual, 3)
			})

			Convey("Then the artifact on disk matches", func() {
				written, err := artifact.Read(out)
				So(err, ShouldBeNil)
				So(written.Tournaments, ShouldHaveLength, 2)
				So(written.Errors, ShouldHaveLength, 1)
			})

			Convey("When running again without refresh", func() {
				before := fx.fetcher.Total()
				again, err := fx.service().Run(ctx, service.Request{Limit: 2, Divisions: []string{"masters"}})

				Convey("Then everything is served from the caches", func() {
					So(err, ShouldBeNil)
					So(fx.fetcher.Total(), ShouldEqual, before)
					So(again.Tournaments, ShouldHaveLength, 2)
					So(again.Errors, ShouldHaveLength, 1)
				})
			})
		})
	})
}

func TestRunDivisionsAndMissingPages(t *testing.T) {
	ctx := context.Background()

	Convey("Given the fixture standings", t, func() {
		fx := newFixture(t)

		Convey("When two divisions are requested", func() {
			a, err := fx.service().Run(ctx, service.Request{Limit: 1, Divisions: []string{"Masters", "seniors", "masters"}})

			Convey("Then each division is its own entry", func() {
				So(err, ShouldBeNil)
				So(a.Meta.Divisions, ShouldResemble, []string{"masters", "seniors"})
				So(a.Tournaments, ShouldHaveLength, 2)
				So(a.Tournaments[1].Division, ShouldEqual, "seniors")
				So(a.Tournaments[1].Players[0].Name, ShouldEqual, "Erin Junior")
			})
		})

		Convey("When a listed division document is missing", func() {
			a, err := fx.service().Run(ctx, service.Request{Divisions: []string{"masters"}})

			Convey("Then the tournament is kept empty and the failure recorded", func() {
				So(err, ShouldBeNil)
				So(a.Meta.Limit, ShouldBeNil)
				So(a.Tournaments, ShouldHaveLength, 3)
				So(a.Tournaments[2].ID, ShouldEqual, testutil.TournamentDallas)
				So(a.Tournaments[2].Players, ShouldBeEmpty)
				So(a.Errors, ShouldHaveLength, 2)
				So(a.Errors[1].Stage, ShouldEqual, model.StateFetching)
				So(a.Errors[1].Unit.Player, ShouldBeEmpty)
			})
		})

		Convey("When a forced refresh runs after a normal one", func() {
			_, err := fx.service().Run(ctx, service.Request{Limit: 1})
			So(err, ShouldBeNil)
			before := fx.fetcher.Calls(testutil.DivisionURL(testutil.TournamentNAIC, "masters"))

			a, err := fx.service().Run(ctx, service.Request{Limit: 1, ForceRefresh: true})

			Convey("Then the division document is revalidated once", func() {
				So(err, ShouldBeNil)
				So(a.Meta.Refreshed, ShouldBeTrue)
				So(fx.fetcher.Calls(testutil.DivisionURL(testutil.TournamentNAIC, "masters")), ShouldEqual, before+1)
			})
		})
	})
}

func TestRunFatalFailures(t *testing.T) {
	ctx := context.Background()

	Convey("Given no reachable upstream", t, func() {
		fx := &fixture{fetcher: testutil.NewFakeFetcher(), dir: t.TempDir()}
		_, err := fx.service().Run(ctx, service.Request{Limit: 2})

		Convey("Then the run fails at bootstrap", func() {
			So(errors.Is(err, service.ErrBootstrap), ShouldBeTrue)
			So(errors.Is(err, errs.ErrNetwork), ShouldBeTrue)
		})
	})

	Convey("Given reference data but no standings index", t, func() {
		f := testutil.NewFakeFetcher()
		testutil.ServeShowdown(f, testutil.ShowdownBaseURL)
		fx := &fixture{fetcher: f, dir: t.TempDir()}
		_, err := fx.service().Run(ctx, service.Request{})

		So(errors.Is(err, service.ErrNoTournaments), ShouldBeTrue)
	})

	Convey("Given an unknown format", t, func() {
		fx := newFixture(t)
		_, err := fx.service(service.WithFormat("gen9madeup")).Run(ctx, service.Request{})

		So(errors.Is(err, errs.ErrConfiguration), ShouldBeTrue)
	})

	Convey("Given an artifact path that cannot be written", t, func() {
		fx := newFixture(t)
		blocker := filepath.Join(fx.dir, "file")
		So(os.WriteFile(blocker, []byte("x"), 0o644), ShouldBeNil)

		a, err := fx.service().Run(ctx, service.Request{Limit: 1, Output: filepath.Join(blocker, "teams.json")})

		Convey("Then the artifact is still returned with the write error", func() {
			So(errors.Is(err, service.ErrArtifactWrite), ShouldBeTrue)
			So(a.Tournaments, ShouldHaveLength, 1)
		})
	})
}

func TestRunDebugTrace(t *testing.T) {
	Convey("Given a debug run logging at info level", t, func() {
		fx := newFixture(t)
		var buf bytes.Buffer
		l, err := logger.New(&buf, "info")
		So(err, ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err = fx.serviceWithLogger(l).Run(ctx, service.Request{Limit: 1, Debug: true})

		Convey("Then unit outcomes are traced", func() {
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "unit done")
			So(buf.String(), ShouldContainSubstring, "unit failed")
			So(buf.String(), ShouldContainSubstring, "legality issue")
		})
	})
}
