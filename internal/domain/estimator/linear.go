package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is least squares on standardized features with a small
// ridge penalty so that collinear or constant columns stay solvable.
type LinearRegression struct {
	Alpha     float64   `json:"alpha"`
	Scaler    Scaler    `json:"scaler"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LinearRegression) Fit(X mat.Matrix, y []float64, _ []int) error {
	_, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	m.Scaler.fit(X)
	xs := m.Scaler.transform(X)

	m.Intercept = stat.Mean(y, nil)
	centered := make([]float64, len(y))
	copy(centered, y)
	floats.AddConst(-m.Intercept, centered)

	var gram mat.SymDense
	gram.SymOuterK(1, xs.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xs.T(), mat.NewVecDense(len(centered), centered))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return fmt.Errorf("linear regression: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return fmt.Errorf("linear regression: %w", err)
	}
	m.Coef = mat.Col(nil, 0, &w)
	return nil
}

func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotFitted
	}
	return linearScores(&m.Scaler, m.Coef, m.Intercept, X)
}

// linearScores computes Xs·w + b for standardized X.
func linearScores(s *Scaler, coef []float64, intercept float64, X mat.Matrix) ([]float64, error) {
	r, c := X.Dims()
	if c != len(coef) {
		return nil, fmt.Errorf("%d columns, model has %d: %w", c, len(coef), ErrShape)
	}
	var out mat.VecDense
	out.MulVec(s.transform(X), mat.NewVecDense(c, coef))
	scores := make([]float64, r)
	for i := range scores {
		scores[i] = out.AtVec(i) + intercept
	}
	return scores, nil
}
