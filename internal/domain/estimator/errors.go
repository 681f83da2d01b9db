package estimator

import "errors"

var (
	// ErrUnsupported is returned for an unknown model name or a name/type pair
	// outside the supported set.
	ErrUnsupported = errors.New("unsupported model")
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrShape is returned when matrix, target and group sizes disagree.
	ErrShape = errors.New("shape mismatch")
)
