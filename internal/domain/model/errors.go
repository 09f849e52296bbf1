package model

import "errors"

// Sentinel errors for domain models.
var (
	ErrInvalidTransition = errors.New("invalid unit state transition")
)
