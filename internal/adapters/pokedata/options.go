package pokedata

import (
	"time"

	"github.com/okian/rosterpipe/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithBaseURL sets the standings host.
func WithBaseURL(u string) Option {
	return func(c *Cache) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency bounds parallel tournament page reads.
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithIndexMaxAge sets how long the tournament index is served without
// revalidation. Zero, the default, never revalidates.
func WithIndexMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.indexMaxAge = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
