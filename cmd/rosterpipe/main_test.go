package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterpipe/internal/adapters/artifact"
	"github.com/okian/rosterpipe/internal/testutil"
	"github.com/okian/rosterpipe/pkg/logger"
)

type harness struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
	d      deps
}

func newHarness(t *testing.T, fetcher *testutil.FakeFetcher) *harness {
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "ROSTERPIPE_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
	t.Setenv("ROSTERPIPE_POKEDATA_BASE_URL", testutil.PokeDataBaseURL)
	t.Setenv("ROSTERPIPE_SHOWDOWN_BASE_URL", testutil.ShowdownBaseURL)

	h := &harness{dir: t.TempDir()}
	l, err := logger.New(&h.stderr, "info")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h.d = deps{stdout: &h.stdout, stderr: &h.stderr, fetcher: fetcher, logger: l}
	return h
}

func (h *harness) run(args ...string) int {
	base := []string{
		"--cache-dir", filepath.Join(h.dir, "pokedata"),
		"--reference-dir", filepath.Join(h.dir, "showdown"),
		"--output", filepath.Join(h.dir, "teams.json"),
	}
	return execute(context.Background(), append(base, args...), h.d)
}

func fixtureFetcher() *testutil.FakeFetcher {
	f := testutil.NewFakeFetcher()
	testutil.ServeShowdown(f, testutil.ShowdownBaseURL)
	return testutil.ServePokeData(f)
}

func TestExecute(t *testing.T) {
	convey.Convey("Given reachable fixture upstreams", t, func() {
		h := newHarness(t, fixtureFetcher())

		convey.Convey("When running with limit 2 over masters", func() {
			metricsFile := filepath.Join(h.dir, "metrics.prom")
			code := h.run("--limit", "2", "--divisions", "masters", "--workers", "2", "--metrics-file", metricsFile)

			convey.Convey("Then it exits cleanly despite the failed unit", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(h.stdout.String(), convey.ShouldContainSubstring, "2 tournament divisions, 3 teams, 1 errors")
			})

			convey.Convey("Then the artifact is written", func() {
				a, err := artifact.Read(filepath.Join(h.dir, "teams.json"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(a.Tournaments, convey.ShouldHaveLength, 2)
				convey.So(a.Meta.Workers, convey.ShouldEqual, 2)
			})

			convey.Convey("Then the metrics textfile is written", func() {
				raw, err := os.ReadFile(metricsFile)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldContainSubstring, "units_total")
			})
		})

		convey.Convey("When an unknown division is requested", func() {
			code := h.run("--divisions", "masters,veterans")

			convey.So(code, convey.ShouldEqual, exitConfig)
			convey.So(h.stderr.String(), convey.ShouldContainSubstring, "veterans")
		})

		convey.Convey("When an unknown flag is given", func() {
			convey.So(h.run("--colour"), convey.ShouldEqual, exitConfig)
		})

		convey.Convey("When the format is unknown", func() {
			convey.So(h.run("--format", "gen9nothing"), convey.ShouldEqual, exitConfig)
		})

		convey.Convey("When the artifact cannot be written", func() {
			blocker := filepath.Join(h.dir, "blocker")
			convey.So(os.WriteFile(blocker, nil, 0o644), convey.ShouldBeNil)

			code := h.run("--limit", "1", "--output", filepath.Join(blocker, "teams.json"))
			convey.So(code, convey.ShouldEqual, exitFailure)
		})
	})

	convey.Convey("Given no reachable upstream", t, func() {
		h := newHarness(t, testutil.NewFakeFetcher())

		convey.So(h.run("--limit", "1"), convey.ShouldEqual, exitBootstrap)
	})

	convey.Convey("Given reference data but no standings", t, func() {
		f := testutil.NewFakeFetcher()
		testutil.ServeShowdown(f, testutil.ShowdownBaseURL)
		h := newHarness(t, f)

		convey.So(h.run(), convey.ShouldEqual, exitBootstrap)
	})
}
