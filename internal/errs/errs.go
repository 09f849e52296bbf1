// Package errs defines the error taxonomy shared by every pipeline stage.
//
// Each failure carries a Kind so callers can branch on the category with
// errors.Is against the sentinels below, while the wrapped cause stays
// available through errors.Unwrap.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

// Failure kinds.
const (
	KindNetwork         Kind = "network"
	KindParse           Kind = "parse"
	KindNotFound        Kind = "not_found"
	KindCacheCorruption Kind = "cache_corruption"
	KindConfiguration   Kind = "configuration"
)

// Sentinels matched by errors.Is for every *Error of the same kind.
var (
	ErrNetwork         = errors.New("network error")
	ErrParse           = errors.New("parse error")
	ErrNotFound        = errors.New("not found")
	ErrCacheCorruption = errors.New("cache corruption")
	ErrConfiguration   = errors.New("configuration error")
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "pokedata.fetch"
	Subject string // what it failed on, e.g. a URL or a name
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Subject != "" {
		msg += " " + fmt.Sprintf("%q", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

func sentinel(k Kind) error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindNotFound:
		return ErrNotFound
	case KindCacheCorruption:
		return ErrCacheCorruption
	case KindConfiguration:
		return ErrConfiguration
	default:
		return nil
	}
}

// New builds a classified error.
func New(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Network wraps a fetch failure.
func Network(op, subject string, err error) *Error { return New(KindNetwork, op, subject, err) }

// Parse wraps malformed input.
func Parse(op, subject string, err error) *Error { return New(KindParse, op, subject, err) }

// NotFound reports an unknown name.
func NotFound(op, subject string) *Error { return New(KindNotFound, op, subject, nil) }

// CacheCorruption reports a checksum mismatch.
func CacheCorruption(op, subject string, err error) *Error {
	return New(KindCacheCorruption, op, subject, err)
}

// Configuration reports an invalid invocation.
func Configuration(op, subject string, err error) *Error {
	return New(KindConfiguration, op, subject, err)
}

// Parsef is shorthand for a parse error with a formatted cause.
func Parsef(op, format string, args ...any) *Error {
	return Parse(op, "", fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
