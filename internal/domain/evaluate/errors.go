package evaluate

import "errors"

var (
	// ErrInvalidArgument covers empty input, length mismatches and unknown metric names.
	ErrInvalidArgument = errors.New("invalid argument")
)
