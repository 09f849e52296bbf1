package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rosterpipe/internal/adapters/fetch"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/smartystreets/goconvey/convey"
)

func newFetcher() *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(
		fetch.WithMaxAttempts(3),
		fetch.WithBackoff(time.Millisecond, 5*time.Millisecond),
		fetch.WithTimeout(2*time.Second),
	)
}

func TestHTTPFetcher(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a server that fails twice before answering", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write([]byte("payload"))
		}))
		defer srv.Close()

		resp, err := newFetcher().Fetch(ctx, fetch.Request{URL: srv.URL})

		convey.Convey("Then the third attempt succeeds", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(resp.Body), convey.ShouldEqual, "payload")
			convey.So(resp.ETag, convey.ShouldEqual, `"v1"`)
			convey.So(atomic.LoadInt32(&calls), convey.ShouldEqual, 3)
		})
	})

	convey.Convey("Given a server that always fails", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newFetcher().Fetch(ctx, fetch.Request{URL: srv.URL})

		convey.Convey("Then attempts are bounded and the error is a network error", func() {
			convey.So(errors.Is(err, errs.ErrNetwork), convey.ShouldBeTrue)
			convey.So(atomic.LoadInt32(&calls), convey.ShouldEqual, 3)
		})
	})

	convey.Convey("Given a missing document", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := newFetcher().Fetch(ctx, fetch.Request{URL: srv.URL})

		convey.Convey("Then it is not retried", func() {
			convey.So(errors.Is(err, errs.ErrNetwork), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "404")
			convey.So(atomic.LoadInt32(&calls), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a known ETag", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("If-None-Match") == `"v1"` {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			_, _ = w.Write([]byte("fresh"))
		}))
		defer srv.Close()

		resp, err := newFetcher().Fetch(ctx, fetch.Request{URL: srv.URL, ETag: `"v1"`})

		convey.Convey("Then the response is marked not modified", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.NotModified, convey.ShouldBeTrue)
			convey.So(resp.ETag, convey.ShouldEqual, `"v1"`)
			convey.So(resp.Body, convey.ShouldBeEmpty)
		})
	})

	convey.Convey("Given a body over the size limit", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = w.Write([]byte("0123456789abcdef"))
		}))
		defer srv.Close()

		f := fetch.NewHTTPFetcher(fetch.WithMaxAttempts(3), fetch.WithBackoff(time.Millisecond, 5*time.Millisecond), fetch.WithMaxBodyBytes(8))
		resp, err := f.Fetch(ctx, fetch.Request{URL: srv.URL})

		convey.Convey("Then the request fails instead of returning a truncated body", func() {
			convey.So(errors.Is(err, errs.ErrNetwork), convey.ShouldBeTrue)
			convey.So(errors.Is(err, fetch.ErrBodyTooLarge), convey.ShouldBeTrue)
			convey.So(resp.Body, convey.ShouldBeNil)
			convey.So(atomic.LoadInt32(&calls), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a body exactly at the size limit", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("01234567"))
		}))
		defer srv.Close()

		resp, err := fetch.NewHTTPFetcher(fetch.WithMaxBodyBytes(8)).Fetch(ctx, fetch.Request{URL: srv.URL})
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(resp.Body), convey.ShouldEqual, "01234567")
	})

	convey.Convey("Given a cancelled context", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newFetcher().Fetch(cctx, fetch.Request{URL: srv.URL})

		convey.So(errors.Is(err, errs.ErrNetwork), convey.ShouldBeTrue)
	})
}
