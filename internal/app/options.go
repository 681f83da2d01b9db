package app

import (
	"time"

	"github.com/pranch555/F1-Prediction/pkg/logger"
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithLogger sets a custom logger for the trainer.
func WithLogger(log logger.Logger) Option {
	return func(t *Trainer) {
		if log != nil {
			t.logger = log
		}
	}
}

// WithClock overrides the clock used to stamp run directories.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithParallelism bounds concurrent bootstrap work during evaluation.
func WithParallelism(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.parallelism = n
		}
	}
}
