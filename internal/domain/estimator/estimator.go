// Package estimator provides the closed set of models that turn a feature
// matrix into race scores. Every model is selected explicitly from a
// ModelConfig; there is no registration.
package estimator

import (
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Type is the learning task an estimator is fitted for.
type Type string

const (
	TypeRegression     Type = "regression"
	TypeClassification Type = "classification"
	TypeRanking        Type = "ranking"
)

// Model names.
const (
	NameLinearRegression   = "linear_regression"
	NameLogisticRegression = "logistic_regression"
	NameGradientBoosting   = "gradient_boosting"
	NamePairwiseRanker     = "pairwise_ranker"
	NameGridBaseline       = "grid_baseline"
)

var aliases = map[string]string{
	"linreg": NameLinearRegression,
	"logreg": NameLogisticRegression,
	"gbr":    NameGradientBoosting,
	"gb":     NameGradientBoosting,
	"ranker": NamePairwiseRanker,
	"grid":   NameGridBaseline,
}

// ModelConfig selects and parameterizes an estimator.
type ModelConfig struct {
	Name     string         `json:"name"`
	Type     Type           `json:"type"`
	Params   map[string]any `json:"params,omitempty"`
	Features []string       `json:"features,omitempty"`
	Seed     int64          `json:"seed"`
}

// Estimator is fitted on a feature matrix and predicts one value per row.
// For ranking estimators rows must be contiguous per race and groupSizes
// must list the per-race row counts in that order; other types ignore it.
type Estimator interface {
	Fit(X mat.Matrix, y []float64, groupSizes []int) error
	Predict(X mat.Matrix) ([]float64, error)
}

// ProbabilityPredictor is implemented by classifiers that expose the
// probability of the positive class.
type ProbabilityPredictor interface {
	PredictProba(X mat.Matrix) ([]float64, error)
}

// Normalize lowercases the config name and type and resolves aliases.
func (c ModelConfig) Normalize() ModelConfig {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	if full, ok := aliases[c.Name]; ok {
		c.Name = full
	}
	c.Type = Type(strings.ToLower(strings.TrimSpace(string(c.Type))))
	return c
}

// New returns an unfitted estimator for the configured name and type.
func New(cfg ModelConfig) (Estimator, error) {
	cfg = cfg.Normalize()
	p := params(cfg.Params)

	switch cfg.Name {
	case NameLinearRegression:
		if cfg.Type != TypeRegression {
			return nil, unsupported(cfg, "requires type regression")
		}
		return &LinearRegression{Alpha: p.float("alpha", 1e-6)}, nil

	case NameLogisticRegression:
		if cfg.Type != TypeClassification {
			return nil, unsupported(cfg, "requires type classification")
		}
		return &LogisticRegression{
			C:        p.float("C", 1),
			MaxIter:  p.int("max_iter", 500),
			Balanced: p.string("class_weight", "balanced") == "balanced",
		}, nil

	case NameGradientBoosting:
		if cfg.Type != TypeRegression && cfg.Type != TypeClassification {
			return nil, unsupported(cfg, "supports regression or classification")
		}
		return &GradientBoosting{
			Classifier:     cfg.Type == TypeClassification,
			NEstimators:    p.int("n_estimators", 150),
			LearningRate:   p.float("learning_rate", 0.1),
			MaxDepth:       p.int("max_depth", 3),
			MinSamplesLeaf: p.int("min_samples_leaf", 1),
		}, nil

	case NamePairwiseRanker:
		if cfg.Type != TypeRanking {
			return nil, unsupported(cfg, "requires type ranking")
		}
		return &PairwiseRanker{
			Lambda:  p.float("lambda", 1e-3),
			MaxIter: p.int("max_iter", 300),
		}, nil

	case NameGridBaseline:
		switch cfg.Type {
		case TypeRegression, TypeClassification, TypeRanking:
		default:
			return nil, unsupported(cfg, "unknown type")
		}
		return &GridBaseline{Type: cfg.Type, Features: cfg.Features}, nil
	}
	return nil, fmt.Errorf("model %q: %w", cfg.Name, ErrUnsupported)
}

func unsupported(cfg ModelConfig, reason string) error {
	return fmt.Errorf("model %q with type %q: %s: %w", cfg.Name, cfg.Type, reason, ErrUnsupported)
}

// Scores orients estimator output so that a higher score means a better
// predicted finish: regression predictions are negated and classifiers
// report the win probability when they can.
func Scores(e Estimator, typ Type, X mat.Matrix) ([]float64, error) {
	if typ == TypeClassification {
		if pp, ok := e.(ProbabilityPredictor); ok {
			return pp.PredictProba(X)
		}
	}
	out, err := e.Predict(X)
	if err != nil {
		return nil, err
	}
	if typ == TypeRegression {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out, nil
}

type snapshot struct {
	Config ModelConfig     `json:"config"`
	Model  json.RawMessage `json:"model"`
}

// Marshal serializes a fitted estimator together with the config that built it.
func Marshal(cfg ModelConfig, e Estimator) ([]byte, error) {
	model, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return json.MarshalIndent(snapshot{Config: cfg.Normalize(), Model: model}, "", "  ")
}

// Unmarshal restores an estimator written by Marshal.
func Unmarshal(data []byte) (Estimator, ModelConfig, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ModelConfig{}, fmt.Errorf("decode snapshot: %w", err)
	}
	e, err := New(s.Config)
	if err != nil {
		return nil, s.Config, err
	}
	if err := json.Unmarshal(s.Model, e); err != nil {
		return nil, s.Config, fmt.Errorf("decode model: %w", err)
	}
	return e, s.Config, nil
}

func checkShape(X mat.Matrix, y []float64) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || r != len(y) {
		return r, c, fmt.Errorf("%d rows, %d targets: %w", r, len(y), ErrShape)
	}
	return r, c, nil
}
