package features

import (
	"errors"

	"github.com/pranch555/F1-Prediction/internal/domain/positions"
)

// Sentinel kinds for feature building errors.
var (
	ErrMissingTable  = errors.New("missing table")
	ErrMissingColumn = positions.ErrMissingColumn
)
