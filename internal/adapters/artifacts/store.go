// Package artifacts persists everything a training or prediction run
// produces under a per-run directory.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	"github.com/pranch555/F1-Prediction/pkg/metrics"
)

// File names inside a run directory.
const (
	FileConfig      = "config.yaml"
	FileMetrics     = "metrics.json"
	FileCVMetrics   = "cv_metrics.json"
	FileState       = "state.json"
	FileModel       = "model.json"
	FilePredictions = "predictions.csv"
	FileReport      = "report.md"
	FileTextfile    = "metrics.prom"
)

const (
	defaultRoot       = "runs"
	defaultExperiment = "exp"
	defaultTopN       = 10
	runStampLayout    = "20060102-150405"
)

// Store creates run directories.
type Store struct {
	root       string
	experiment string
	topN       int
	now        func() time.Time
	logger     logger.Logger
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		root:       defaultRoot,
		experiment: defaultExperiment,
		topN:       defaultTopN,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("artifacts")
	}
	return s
}

// Create makes a fresh run directory <root>/<experiment>/<stamp>-<id>.
func (s *Store) Create(ctx context.Context) (*Run, error) {
	id := uuid.NewString()[:8]
	dir := filepath.Join(s.root, s.experiment, s.now().UTC().Format(runStampLayout)+"-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	s.logger.Info(ctx, "run directory created", logger.String("dir", dir))
	return &Run{ID: id, Dir: dir, topN: s.topN}, nil
}

// Open returns a handle on an existing run directory.
func (s *Store) Open(dir string) (*Run, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("run dir %s: %w", dir, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &Run{ID: filepath.Base(dir), Dir: dir, topN: s.topN}, nil
}

// Run is a single run directory.
type Run struct {
	ID   string
	Dir  string
	topN int
}

// Path returns the absolute location of a file within the run.
func (r *Run) Path(name string) string { return filepath.Join(r.Dir, name) }

// WriteConfig stores the configuration actually used as YAML.
func (r *Run) WriteConfig(cfg any) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return r.write(FileConfig, raw)
}

// WriteMetrics stores the full-fit evaluation report.
func (r *Run) WriteMetrics(report map[string]float64) error {
	return r.writeJSON(FileMetrics, finite(report))
}

// CVMetrics is the cross-validation summary.
type CVMetrics struct {
	Folds []map[string]float64
	Mean  map[string]float64
}

// WriteCVMetrics stores per-fold reports and their mean.
func (r *Run) WriteCVMetrics(cv CVMetrics) error {
	folds := make([]map[string]*float64, len(cv.Folds))
	for i, f := range cv.Folds {
		folds[i] = finite(f)
	}
	return r.writeJSON(FileCVMetrics, map[string]any{
		"folds": folds,
		"mean":  finite(cv.Mean),
	})
}

// WriteState stores the fitted feature state.
func (r *Run) WriteState(state features.FittedState) error {
	return r.writeJSON(FileState, state)
}

// ReadState loads the fitted feature state.
func (r *Run) ReadState() (features.FittedState, error) {
	var state features.FittedState
	raw, err := r.read(FileState)
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("%s: %w: %v", FileState, ErrCorrupt, err)
	}
	return state, nil
}

// WriteModel stores an encoded estimator.
func (r *Run) WriteModel(data []byte) error { return r.write(FileModel, data) }

// ReadModel loads an encoded estimator.
func (r *Run) ReadModel() ([]byte, error) { return r.read(FileModel) }

// WriteTextfile exports the current pipeline metrics in Prometheus text format.
func (r *Run) WriteTextfile() error {
	return metrics.WriteTextfile(r.Path(FileTextfile))
}

func (r *Run) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return r.write(name, append(raw, '\n'))
}

func (r *Run) write(name string, data []byte) error {
	if err := os.WriteFile(r.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *Run) read(name string) ([]byte, error) {
	raw, err := os.ReadFile(r.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", r.Path(name), ErrNotFound)
	}
	return raw, err
}

// finite maps NaN and infinite values to JSON null.
func finite(report map[string]float64) map[string]*float64 {
	out := make(map[string]*float64, len(report))
	for k, v := range report {
		v := v
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	return out
}
