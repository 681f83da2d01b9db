// Package split partitions rows into cross-validation folds such that every
// row of a race lands in the same fold.
package split

import (
	"fmt"
	"math/rand"
)

// Fold holds row indices for one train/validation split. Both slices are in
// ascending row order.
type Fold struct {
	Train      []int
	Validation []int
}

type options struct {
	shuffle bool
	seed    int64
}

// Option configures GroupKFold.
type Option func(*options)

// WithShuffle permutes the distinct groups with a source seeded by seed
// before fold assignment. The same seed always yields the same folds.
func WithShuffle(seed int64) Option {
	return func(o *options) {
		o.shuffle = true
		o.seed = seed
	}
}

// GroupKFold returns exactly n folds. Distinct groups, in first-seen order
// (optionally shuffled), are assigned to folds round robin. When there are
// fewer groups than folds the trailing folds have an empty validation set.
func GroupKFold(n int, groups []string, opts ...Option) ([]Fold, error) {
	if n < 2 {
		return nil, fmt.Errorf("n_splits must be at least 2, got %d: %w", n, ErrInvalidArgument)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("groups is empty: %w", ErrInvalidArgument)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	index := make(map[string]int)
	var distinct []string
	for _, g := range groups {
		if _, seen := index[g]; !seen {
			index[g] = len(distinct)
			distinct = append(distinct, g)
		}
	}
	if o.shuffle {
		rng := rand.New(rand.NewSource(o.seed))
		rng.Shuffle(len(distinct), func(i, j int) {
			distinct[i], distinct[j] = distinct[j], distinct[i]
		})
	}

	assigned := make(map[string]int, len(distinct))
	for k, g := range distinct {
		assigned[g] = k % n
	}

	folds := make([]Fold, n)
	for row, g := range groups {
		f := assigned[g]
		for k := range folds {
			if k == f {
				folds[k].Validation = append(folds[k].Validation, row)
			} else {
				folds[k].Train = append(folds[k].Train, row)
			}
		}
	}
	return folds, nil
}
