package positions

import "errors"

// Sentinel kinds for position normalization errors.
var (
	ErrMissingColumn = errors.New("missing column")
)
