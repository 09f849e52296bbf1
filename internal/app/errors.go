package service

import "errors"

// Sentinel errors for run-level failures. Per-unit failures are recorded in
// the artifact and never returned.
var (
	ErrBootstrap     = errors.New("reference data bootstrap failed")
	ErrNoTournaments = errors.New("no tournaments discovered")
	ErrArtifactWrite = errors.New("artifact write failed")
)
