package service

import (
	"time"

	"github.com/okian/rosterpipe/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the default number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithFormat sets the format every team is validated against.
func WithFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.format = format
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunID overrides the run id generator.
func WithRunID(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.runID = gen
		}
	}
}
