package refdata

import (
	"time"

	"github.com/okian/rosterpipe/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithBaseURL sets the data host the datasets are downloaded from.
func WithBaseURL(u string) Option {
	return func(s *Store) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAliases replaces the compiled-in alias table.
func WithAliases(t *AliasTable) Option {
	return func(s *Store) {
		if t != nil {
			s.aliases = t
		}
	}
}

// WithKeepSnapshots sets how many snapshot versions survive pruning.
func WithKeepSnapshots(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.keep = n
		}
	}
}

// WithConcurrency bounds parallel dataset downloads.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the time source used for snapshot versions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
