// Package config defines pipeline configuration structures and loading.
//
// Conventions:
// - New() returns a Config holding every default.
// - Load layers a YAML file and F1PRED_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the configuration of one training or inference run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" yaml:"log_format"`

	// Seed is the run-wide seed echoed into artifacts.
	Seed int64 `koanf:"seed" yaml:"seed"`

	// OutputRoot and ExperimentName place run directories at
	// <output_root>/<experiment_name>/<timestamp>-<id>.
	OutputRoot     string `koanf:"output_root" yaml:"output_root"`
	ExperimentName string `koanf:"experiment_name" yaml:"experiment_name"`

	// MetricsTextfile writes metrics.prom into the run directory.
	MetricsTextfile bool `koanf:"metrics_textfile" yaml:"metrics_textfile"`

	Data       DataConfig       `koanf:"data" yaml:"data"`
	Model      ModelConfig      `koanf:"model" yaml:"model"`
	Target     TargetConfig     `koanf:"target" yaml:"target"`
	Split      SplitConfig      `koanf:"split" yaml:"split"`
	Evaluation EvaluationConfig `koanf:"evaluation" yaml:"evaluation"`
	Features   FeaturesConfig   `koanf:"features" yaml:"features"`
}

// DataConfig locates the input CSV files.
type DataConfig struct {
	// RawDir is joined with relative file paths.
	RawDir string `koanf:"raw_dir" yaml:"raw_dir"`
	// Files maps logical table names (results, races, ...) to file paths.
	Files map[string]string `koanf:"files" yaml:"files"`
}

// ModelConfig selects the estimator.
type ModelConfig struct {
	Name   string         `koanf:"name" yaml:"name"`
	Type   string         `koanf:"type" yaml:"type"`
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// TargetConfig names the target label. "win" or "winner" turn
// classification into a win indicator.
type TargetConfig struct {
	Label string `koanf:"label" yaml:"label"`
}

// SplitConfig configures grouped cross-validation.
type SplitConfig struct {
	NSplits int   `koanf:"n_splits" yaml:"n_splits"`
	Shuffle bool  `koanf:"shuffle" yaml:"shuffle"`
	Seed    int64 `koanf:"seed" yaml:"seed"`
}

// EvaluationConfig configures the ranking evaluator.
type EvaluationConfig struct {
	TopK      []int           `koanf:"top_k" yaml:"top_k"`
	Metrics   []string        `koanf:"metrics" yaml:"metrics"`
	Bootstrap BootstrapConfig `koanf:"bootstrap" yaml:"bootstrap"`
}

// BootstrapConfig configures race-level bootstrap intervals.
type BootstrapConfig struct {
	Enabled  bool  `koanf:"enabled" yaml:"enabled"`
	NSamples int   `koanf:"n_samples" yaml:"n_samples"`
	Seed     int64 `koanf:"seed" yaml:"seed"`
}

// FeaturesConfig tunes the feature builder.
type FeaturesConfig struct {
	FormWindow       int  `koanf:"form_window" yaml:"form_window"`
	ReuseFittedMeans bool `koanf:"reuse_fitted_means" yaml:"reuse_fitted_means"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Seed:            42,
		OutputRoot:      "runs",
		ExperimentName:  "exp",
		MetricsTextfile: true,
		Data: DataConfig{
			RawDir: "Data/raw",
			Files: map[string]string{
				"results":      "results.csv",
				"races":        "races.csv",
				"qualifying":   "qualifying.csv",
				"drivers":      "drivers.csv",
				"constructors": "constructors.csv",
			},
		},
		Model: ModelConfig{
			Name:   "pairwise_ranker",
			Type:   "ranking",
			Params: map[string]any{},
		},
		Target: TargetConfig{Label: "finish_position"},
		Split: SplitConfig{
			NSplits: 5,
			Seed:    42,
		},
		Evaluation: EvaluationConfig{
			TopK:    []int{1, 3, 5, 10},
			Metrics: []string{"ndcg@10", "map@10", "spearman", "rmse"},
			Bootstrap: BootstrapConfig{
				NSamples: 1000,
				Seed:     42,
			},
		},
		Features: FeaturesConfig{FormWindow: 3},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.OutputRoot == "":
		return fmt.Errorf("output_root must not be empty: %w", ErrInvalidConfig)
	case c.Data.Files["results"] == "":
		return fmt.Errorf("data.files.results must be set: %w", ErrInvalidConfig)
	case strings.TrimSpace(c.Model.Name) == "":
		return fmt.Errorf("model.name must not be empty: %w", ErrInvalidConfig)
	case c.Split.NSplits < 2:
		return fmt.Errorf("split.n_splits must be at least 2, got %d: %w", c.Split.NSplits, ErrInvalidConfig)
	case c.Evaluation.Bootstrap.Enabled && c.Evaluation.Bootstrap.NSamples <= 0:
		return fmt.Errorf("evaluation.bootstrap.n_samples must be positive: %w", ErrInvalidConfig)
	case c.Features.FormWindow <= 0:
		return fmt.Errorf("features.form_window must be positive: %w", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Model.Type) {
	case "regression", "classification", "ranking":
	default:
		return fmt.Errorf("model.type %q is not one of regression, classification, ranking: %w", c.Model.Type, ErrInvalidConfig)
	}
	for _, k := range c.Evaluation.TopK {
		if k <= 0 {
			return fmt.Errorf("evaluation.top_k values must be positive, got %d: %w", k, ErrInvalidConfig)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format %q is not text or json: %w", c.LogFormat, ErrInvalidConfig)
	}
	return nil
}

// YAML renders the configuration as it was used.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

// Echo returns the configuration as a generic map for embedding into the
// fitted feature state.
func (c *Config) Echo() (map[string]any, error) {
	raw, err := c.YAML()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode config echo: %w", err)
	}
	return out, nil
}
