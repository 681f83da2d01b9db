package config

import "errors"

var (
	// ErrInvalidConfig marks a configuration that loaded but failed Validate.
	ErrInvalidConfig = errors.New("config: invalid")
	// ErrLoadConfig marks a YAML file or environment layer that could not be read.
	ErrLoadConfig = errors.New("config: load failed")
)
