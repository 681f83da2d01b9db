package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const gridFeature = "grid"

// GridBaseline predicts the starting grid order. It needs no fitting but
// must know where the grid column sits in the feature matrix.
type GridBaseline struct {
	Type     Type     `json:"type"`
	Features []string `json:"features"`
}

func (m *GridBaseline) Fit(X mat.Matrix, y []float64, _ []int) error {
	if _, _, err := checkShape(X, y); err != nil {
		return err
	}
	_, err := m.column()
	return err
}

// Predict returns the grid slot as a position estimate for regression and
// the negated grid slot as a score otherwise.
func (m *GridBaseline) Predict(X mat.Matrix) ([]float64, error) {
	j, err := m.column()
	if err != nil {
		return nil, err
	}
	out := mat.Col(nil, j, X)
	if m.Type != TypeRegression {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out, nil
}

func (m *GridBaseline) column() (int, error) {
	for j, name := range m.Features {
		if name == gridFeature {
			return j, nil
		}
	}
	return 0, fmt.Errorf("grid baseline needs a %q feature: %w", gridFeature, ErrShape)
}
