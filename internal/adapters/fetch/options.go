package fetch

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/rosterpipe/pkg/logger"
)

// Option applies a configuration option to the HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxAttempts bounds the number of attempts per request.
func WithMaxAttempts(n int) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial and maximum retry intervals.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(f *HTTPFetcher) {
		if initial > 0 {
			f.initial = initial
		}
		if maxInterval >= f.initial {
			f.maxInterval = maxInterval
		}
	}
}

// WithRequestsPerSecond paces requests; zero or less disables pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodyBytes bounds the size of a response body. Larger bodies fail
// the request.
func WithMaxBodyBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(l logger.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
