package pokedata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterpipe/internal/adapters/pokedata"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/internal/testutil"
)

func newCache(root string, f *testutil.FakeFetcher, opts ...pokedata.Option) *pokedata.Cache {
	opts = append([]pokedata.Option{pokedata.WithBaseURL(testutil.PokeDataBaseURL)}, opts...)
	return pokedata.New(root, f, opts...)
}

func TestFetchDivisionPage(t *testing.T) {
	ctx := context.Background()
	url := testutil.DivisionURL(testutil.TournamentNAIC, "masters")

	Convey("Given an empty cache", t, func() {
		root := t.TempDir()
		f := testutil.ServePokeData(testutil.NewFakeFetcher())
		cache := newCache(root, f)

		So(cache.DivisionURL(testutil.TournamentNAIC, "masters"), ShouldEqual, url)

		Convey("When a division is fetched twice", func() {
			first, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
			So(err, ShouldBeNil)
			second, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
			So(err, ShouldBeNil)

			Convey("Then only the first touches the network", func() {
				So(first.OK(), ShouldBeTrue)
				So(first.Source, ShouldEqual, pokedata.SourceNetwork)
				So(second.Source, ShouldEqual, pokedata.SourceCache)
				So(second.Entry.Payload, ShouldResemble, testutil.NAICMastersJSON())
				So(second.Entry.Hash, ShouldEqual, first.Entry.Hash)
				So(f.Calls(url), ShouldEqual, 1)
			})

			Convey("Then a new cache over the same directory still hits", func() {
				res, err := newCache(root, f).FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
				So(err, ShouldBeNil)
				So(res.Source, ShouldEqual, pokedata.SourceCache)
				So(f.Calls(url), ShouldEqual, 1)
			})
		})

		Convey("When the upstream is unreachable", func() {
			f.FailAll()
			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)

			Convey("Then a network failure is returned", func() {
				So(errors.Is(err, errs.ErrNetwork), ShouldBeTrue)
				So(res.OK(), ShouldBeFalse)
				So(res.Kind, ShouldEqual, errs.KindNetwork)
			})
		})

		Convey("When a key would escape the cache directory", func() {
			_, err := cache.FetchDivisionPage(ctx, "../etc", "masters", false)
			So(errors.Is(err, errs.ErrConfiguration), ShouldBeTrue)
			So(f.Total(), ShouldEqual, 0)
		})
	})

	Convey("Given a cached division", t, func() {
		root := t.TempDir()
		f := testutil.ServePokeData(testutil.NewFakeFetcher())
		cache := newCache(root, f)
		_, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
		So(err, ShouldBeNil)

		Convey("When a forced refresh finds it unchanged", func() {
			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", true)

			Convey("Then it is revalidated", func() {
				So(err, ShouldBeNil)
				So(res.Source, ShouldEqual, pokedata.SourceRevalidated)
				So(res.Entry.Payload, ShouldResemble, testutil.NAICMastersJSON())
				So(f.Calls(url), ShouldEqual, 2)
			})
		})

		Convey("When a forced refresh finds new content", func() {
			f.SetWithETag(url, []byte(`[]`), `"naic-masters-v2"`)
			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", true)

			Convey("Then the entry is replaced and old payloads are removed", func() {
				So(err, ShouldBeNil)
				So(res.Source, ShouldEqual, pokedata.SourceNetwork)
				So(string(res.Entry.Payload), ShouldEqual, `[]`)

				again, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
				So(err, ShouldBeNil)
				So(string(again.Entry.Payload), ShouldEqual, `[]`)

				payloads, _ := filepath.Glob(filepath.Join(root, testutil.TournamentNAIC, "masters", "payload-*"))
				So(payloads, ShouldHaveLength, 1)
			})
		})

		Convey("When a forced refresh cannot reach the upstream", func() {
			f.Fail(url)
			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", true)

			Convey("Then the cached entry is served marked stale", func() {
				So(err, ShouldBeNil)
				So(res.OK(), ShouldBeTrue)
				So(res.Stale, ShouldBeTrue)
				So(res.Source, ShouldEqual, pokedata.SourceCache)
				So(res.Entry.Payload, ShouldResemble, testutil.NAICMastersJSON())
			})
		})

		Convey("When the payload on disk is damaged", func() {
			payloads, _ := filepath.Glob(filepath.Join(root, testutil.TournamentNAIC, "masters", "payload-*"))
			So(payloads, ShouldHaveLength, 1)
			So(os.WriteFile(payloads[0], []byte("garbage"), 0o644), ShouldBeNil)

			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)

			Convey("Then it is fetched again once", func() {
				So(err, ShouldBeNil)
				So(res.Source, ShouldEqual, pokedata.SourceNetwork)
				So(res.Entry.Payload, ShouldResemble, testutil.NAICMastersJSON())
				So(f.Calls(url), ShouldEqual, 2)
			})
		})
	})
}

func TestFetchDivisionPageConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given many concurrent readers of one key", t, func() {
		f := testutil.ServePokeData(testutil.NewFakeFetcher())
		f.OnCall = func(string) { time.Sleep(10 * time.Millisecond) }
		cache := newCache(t.TempDir(), f)

		var wg sync.WaitGroup
		results := make([]pokedata.Result, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
			}()
		}
		wg.Wait()

		Convey("Then exactly one fetch is made and every reader gets the payload", func() {
			So(f.Calls(testutil.DivisionURL(testutil.TournamentNAIC, "masters")), ShouldEqual, 1)
			for _, r := range results {
				So(r.Entry.Payload, ShouldResemble, testutil.NAICMastersJSON())
			}
		})
	})

	Convey("Given a fetch blocked on one key", t, func() {
		f := testutil.ServePokeData(testutil.NewFakeFetcher())
		slow := testutil.DivisionURL(testutil.TournamentNAIC, "masters")
		started := make(chan struct{})
		release := make(chan struct{})
		f.OnCall = func(u string) {
			if u == slow {
				close(started)
				<-release
			}
		}
		cache := newCache(t.TempDir(), f)

		done := make(chan error, 1)
		go func() {
			_, err := cache.FetchDivisionPage(ctx, testutil.TournamentNAIC, "masters", false)
			done <- err
		}()
		<-started

		Convey("Then another key is served meanwhile", func() {
			res, err := cache.FetchDivisionPage(ctx, testutil.TournamentLille, "masters", false)
			So(err, ShouldBeNil)
			So(res.OK(), ShouldBeTrue)

			close(release)
			So(<-done, ShouldBeNil)
		})
	})
}
