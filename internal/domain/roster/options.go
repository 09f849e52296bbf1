package roster

import (
	"github.com/okian/rosterpipe/internal/domain/ident"
	"github.com/okian/rosterpipe/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithDefaultFormat sets the format id assigned to teams whose text carries
// no "=== [format] ===" header.
func WithDefaultFormat(format string) Option {
	return func(r *Resolver) {
		r.defaultFormat = ident.ToID(format)
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
