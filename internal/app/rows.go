package app

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pranch555/F1-Prediction/internal/domain/features"
)

// selectRows copies the given rows of X. idx must not be empty.
func selectRows(X *mat.Dense, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}

func pick[T any](values []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, r := range idx {
		out[i] = values[r]
	}
	return out
}

// byGroup reorders idx so that rows of the same group are contiguous,
// groups in first-seen order.
func byGroup(idx []int, groups []string) []int {
	order := features.GroupOrder(pick(groups, idx))
	out := make([]int, len(idx))
	for i, k := range order {
		out[i] = idx[k]
	}
	return out
}

// meanReport averages every key across fold reports, skipping NaN.
func meanReport(reports []map[string]float64) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range reports {
		for k, v := range r {
			if _, ok := sums[k]; !ok {
				sums[k] = 0
			}
			if math.IsNaN(v) {
				continue
			}
			sums[k] += v
			counts[k]++
		}
	}
	out := make(map[string]float64, len(sums))
	for k, s := range sums {
		if counts[k] == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = s / float64(counts[k])
	}
	return out
}
