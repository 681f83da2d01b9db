package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// PairwiseRanker is a linear RankNet: for every pair of rows in the same
// race with different relevance it minimizes the logistic loss of the score
// difference. Higher relevance must mean a better finish.
type PairwiseRanker struct {
	Lambda  float64   `json:"lambda"`
	MaxIter int       `json:"max_iter"`
	Scaler  Scaler    `json:"scaler"`
	Coef    []float64 `json:"coef"`
}

type pair struct{ better, worse int }

func (m *PairwiseRanker) Fit(X mat.Matrix, y []float64, groupSizes []int) error {
	r, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	var total int
	for _, s := range groupSizes {
		total += s
	}
	if total != r {
		return fmt.Errorf("group sizes sum to %d, want %d rows: %w", total, r, ErrShape)
	}

	m.Scaler.fit(X)
	xs := m.Scaler.transform(X)

	var pairs []pair
	start := 0
	for _, size := range groupSizes {
		for i := start; i < start+size; i++ {
			for j := start; j < start+size; j++ {
				if y[i] > y[j] {
					pairs = append(pairs, pair{better: i, worse: j})
				}
			}
		}
		start += size
	}
	m.Coef = make([]float64, c)
	if len(pairs) == 0 {
		return nil
	}

	np := float64(len(pairs))
	scores := make([]float64, r)
	score := func(w []float64) {
		for i := range scores {
			scores[i] = rowDot(xs, i, w)
		}
	}
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			score(w)
			var loss float64
			for _, p := range pairs {
				loss += softplus(scores[p.worse] - scores[p.better])
			}
			return loss/np + m.Lambda*sqNorm(w)
		},
		Grad: func(grad, w []float64) {
			score(w)
			for j := range grad {
				grad[j] = 2 * m.Lambda * w[j]
			}
			for _, p := range pairs {
				g := sigmoid(scores[p.worse]-scores[p.better]) / np
				for j := 0; j < c; j++ {
					grad[j] += g * (xs.At(p.worse, j) - xs.At(p.better, j))
				}
			}
		},
	}
	w, err := minimize(problem, m.Coef, m.MaxIter)
	if err != nil {
		return fmt.Errorf("pairwise ranker: %w", err)
	}
	m.Coef = w
	return nil
}

func (m *PairwiseRanker) Predict(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotFitted
	}
	return linearScores(&m.Scaler, m.Coef, 0, X)
}
