package legality

import "github.com/okian/rosterpipe/internal/domain/ident"

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithTeraTypes replaces the set of recognised Tera types.
func WithTeraTypes(types ...string) Option {
	return func(v *Validator) {
		if len(types) == 0 {
			return
		}
		v.teraTypes = make(map[string]bool, len(types))
		for _, t := range types {
			v.teraTypes[ident.ToID(t)] = true
		}
	}
}
