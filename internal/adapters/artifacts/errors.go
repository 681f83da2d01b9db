package artifacts

import "errors"

var (
	// ErrNotFound is returned when a run directory or one of its files is missing.
	ErrNotFound = errors.New("artifact not found")
	// ErrCorrupt is returned when a stored artifact cannot be decoded.
	ErrCorrupt = errors.New("artifact corrupt")
)
