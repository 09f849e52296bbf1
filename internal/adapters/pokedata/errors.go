package pokedata

import "errors"

// Cache errors.
var (
	ErrMiss       = errors.New("cache miss")
	ErrInvalidKey = errors.New("invalid cache key")
	ErrNoPayload  = errors.New("not modified without a cached payload")
)
