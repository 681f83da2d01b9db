package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularized binary classifier on standardized
// features, fitted with L-BFGS. Targets are 0 or 1.
type LogisticRegression struct {
	C         float64   `json:"C"`
	MaxIter   int       `json:"max_iter"`
	Balanced  bool      `json:"balanced"`
	Scaler    Scaler    `json:"scaler"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LogisticRegression) Fit(X mat.Matrix, y []float64, _ []int) error {
	r, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	m.Scaler.fit(X)
	xs := m.Scaler.transform(X)

	weights := make([]float64, r)
	var pos float64
	for _, v := range y {
		if v > 0.5 {
			pos++
		}
	}
	for i, v := range y {
		weights[i] = 1
		if m.Balanced && pos > 0 && pos < float64(r) {
			if v > 0.5 {
				weights[i] = float64(r) / (2 * pos)
			} else {
				weights[i] = float64(r) / (2 * (float64(r) - pos))
			}
		}
	}
	penalty := 1 / (2 * m.C * float64(r))

	// Parameters are the c coefficients followed by the intercept.
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			var loss float64
			for i := 0; i < r; i++ {
				z := rowDot(xs, i, w[:c]) + w[c]
				loss += weights[i] * logLoss(y[i], z)
			}
			return loss/float64(r) + penalty*sqNorm(w[:c])
		},
		Grad: func(grad, w []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < r; i++ {
				z := rowDot(xs, i, w[:c]) + w[c]
				g := weights[i] * (sigmoid(z) - y[i]) / float64(r)
				for j := 0; j < c; j++ {
					grad[j] += g * xs.At(i, j)
				}
				grad[c] += g
			}
			for j := 0; j < c; j++ {
				grad[j] += 2 * penalty * w[j]
			}
		},
	}
	w, err := minimize(problem, make([]float64, c+1), m.MaxIter)
	if err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	m.Coef = w[:c]
	m.Intercept = w[c]
	return nil
}

// Predict returns hard 0/1 labels.
func (m *LogisticRegression) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range proba {
		if p >= 0.5 {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotFitted
	}
	z, err := linearScores(&m.Scaler, m.Coef, m.Intercept, X)
	if err != nil {
		return nil, err
	}
	for i, v := range z {
		z[i] = sigmoid(v)
	}
	return z, nil
}

func minimize(p optimize.Problem, init []float64, maxIter int) ([]float64, error) {
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-6,
	}
	res, err := optimize.Minimize(p, init, settings, &optimize.LBFGS{})
	if res == nil {
		return nil, err
	}
	// Iteration limits and line-search stalls still leave a usable point.
	return res.X, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logLoss is the binary cross entropy of label y at logit z.
func logLoss(y, z float64) float64 {
	// log(1+exp(z)) - y*z, computed stably.
	return softplus(z) - y*z
}

func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func rowDot(X *mat.Dense, i int, w []float64) float64 {
	var s float64
	for j, v := range w {
		s += X.At(i, j) * v
	}
	return s
}

func sqNorm(w []float64) float64 {
	var s float64
	for _, v := range w {
		s += v * v
	}
	return s
}
