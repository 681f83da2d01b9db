package app

import "errors"

var (
	// ErrLeakage is returned when a feature name matches the target or a
	// post-race proxy.
	ErrLeakage = errors.New("target leakage in features")
	// ErrNoFolds is returned when cross-validation produced no usable fold.
	ErrNoFolds = errors.New("no usable cross-validation fold")
)
