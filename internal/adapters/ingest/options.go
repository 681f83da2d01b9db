// Package ingest loads the raw race tables from CSV files.
package ingest

import (
	"github.com/pranch555/F1-Prediction/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDir sets the directory relative file paths are resolved against.
func WithDir(dir string) Option {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithFiles sets the logical table name to file path mapping.
func WithFiles(files map[string]string) Option {
	return func(l *Loader) {
		if files != nil {
			l.files = files
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}
