// Package fetch retrieves upstream documents over HTTP with bounded retry,
// request pacing and conditional revalidation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Default fetch configuration constants.
const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 4
	defaultInitial     = 500 * time.Millisecond
	defaultMaxInterval = 8 * time.Second
	defaultUserAgent   = "rosterpipe/1.0"
	maxBodyBytes       = 64 << 20

	opFetch = "fetch"
)

// ErrBodyTooLarge is returned when a response body exceeds the size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Request names a document to retrieve. ETag, when set, is sent as
// If-None-Match.
type Request struct {
	URL  string
	ETag string
}

// Response is a retrieved document. NotModified responses carry no body.
type Response struct {
	URL         string
	Status      int
	Body        []byte
	ETag        string
	NotModified bool
}

// Fetcher retrieves upstream documents. Failures are classified as
// errs.KindNetwork.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	initial     time.Duration
	maxInterval time.Duration
	userAgent   string
	maxBody     int64
	logger      logger.Logger
}

// NewHTTPFetcher creates a fetcher with configuration options.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxAttempts: defaultMaxAttempts,
		initial:     defaultInitial,
		maxInterval: defaultMaxInterval,
		userAgent:   defaultUserAgent,
		maxBody:     maxBodyBytes,
		logger:      logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// statusError is an unexpected HTTP status.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return "unexpected status " + strconv.Itoa(e.code) }

// retryable reports whether a later attempt may succeed.
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code == http.StatusRequestTimeout || e.code >= http.StatusInternalServerError
}

// Fetch performs a GET, retrying transient failures with exponential
// backoff up to the configured number of attempts.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initial
	b.MaxInterval = f.maxInterval

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := f.once(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var se *statusError
		if (errors.As(err, &se) && !se.retryable()) || errors.Is(err, ErrBodyTooLarge) {
			break
		}
		if ctx.Err() != nil || attempt >= f.maxAttempts {
			break
		}
		sleep := b.NextBackOff()
		if sleep == backoff.Stop {
			break
		}
		metrics.RecordFetchRetry()
		f.logger.Debug(ctx, "retrying upstream request",
			logger.String("url", req.URL), logger.Int("attempt", attempt), logger.Duration("sleep", sleep), logger.Error(err))

		select {
		case <-ctx.Done():
			return Response{}, errs.Network(opFetch, req.URL, ctx.Err())
		case <-time.After(sleep):
		}
	}
	return Response{}, errs.Network(opFetch, req.URL, lastErr)
}

// once performs a single paced request.
func (f *HTTPFetcher) once(ctx context.Context, req Request) (resp Response, err error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.RecordFetch(outcome, float64(time.Since(start).Milliseconds()))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.ETag != "" {
		httpReq.Header.Set("If-None-Match", req.ETag)
	}

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp = Response{URL: req.URL, Status: httpResp.StatusCode, ETag: httpResp.Header.Get("ETag")}
	switch {
	case httpResp.StatusCode == http.StatusNotModified:
		outcome = "not_modified"
		resp.NotModified = true
		if resp.ETag == "" {
			resp.ETag = req.ETag
		}
		return resp, nil
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, f.maxBody))
		return Response{}, &statusError{code: httpResp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, f.maxBody+1))
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		outcome = "too_large"
		return Response{}, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBody)
	}
	outcome = "ok"
	resp.Body = body
	return resp, nil
}
