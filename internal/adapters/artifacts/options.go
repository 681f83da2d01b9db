package artifacts

import (
	"time"

	"github.com/pranch555/F1-Prediction/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithRoot sets the output root under which experiments are created.
func WithRoot(root string) Option {
	return func(s *Store) {
		if root != "" {
			s.root = root
		}
	}
}

// WithExperiment sets the experiment directory name.
func WithExperiment(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.experiment = name
		}
	}
}

// WithClock overrides the clock used to stamp run directories.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTopN sets how many entries per race the markdown report lists.
func WithTopN(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.logger = log
		}
	}
}
