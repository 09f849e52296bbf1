package refdata

import "errors"

// Reference data errors.
var (
	ErrNoSnapshot       = errors.New("no reference snapshot")
	ErrInvalidAliases   = errors.New("invalid alias table")
	ErrMissingDataset   = errors.New("dataset missing from snapshot")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
