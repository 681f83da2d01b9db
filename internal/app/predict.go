package app

import (
	"context"
	"fmt"

	"github.com/pranch555/F1-Prediction/internal/config"
	"github.com/pranch555/F1-Prediction/internal/domain/estimator"
	"github.com/pranch555/F1-Prediction/internal/domain/evaluate"
	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	"github.com/pranch555/F1-Prediction/pkg/metrics"
)

// Prediction summarizes an inference run.
type Prediction struct {
	RunDir   string
	Model    estimator.ModelConfig
	Degraded []string
	Metrics  evaluate.Report
	Board    *leaderboard.Board
}

// Predict scores the configured data with the model saved in modelDir.
// Features are rebuilt in inference mode so that the column order matches
// training. The results are written to a new run directory.
func (t *Trainer) Predict(ctx context.Context, cfg *config.Config, modelDir string) (res *Prediction, err error) {
	defer func() { recordRun("predict", err) }()

	store := t.store(cfg)
	saved, err := store.Open(modelDir)
	if err != nil {
		return nil, err
	}
	state, err := saved.ReadState()
	if err != nil {
		return nil, err
	}
	raw, err := saved.ReadModel()
	if err != nil {
		return nil, err
	}
	est, mcfg, err := estimator.Unmarshal(raw)
	if err != nil {
		metrics.RecordError("predict", "model_decode")
		return nil, fmt.Errorf("%s: %w", modelDir, err)
	}
	t.logger.Info(ctx, "model loaded", logger.String("model", mcfg.Name), logger.String("type", string(mcfg.Type)))

	tables, err := t.load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ds, err := t.build(ctx, cfg, tables, features.ModeInference, &state)
	if err != nil {
		return nil, err
	}
	scores, err := estimator.Scores(est, mcfg.Type, ds.X)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	report, err := t.evaluator(cfg, false).Evaluate(features.Positions(ds.Target), scores, ds.Groups)
	if err != nil {
		return nil, err
	}
	metrics.UpdateEvaluation("predict", report)

	board, err := buildBoard(ds, tables, scores, ds.Target)
	if err != nil {
		return nil, err
	}

	run, err := store.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeAll(
		func() error { return run.WriteConfig(cfg) },
		func() error { return run.WriteMetrics(report) },
		func() error { return run.WritePredictions(board) },
		func() error { return run.WriteReport("Prediction report", report, board) },
	); err != nil {
		metrics.RecordError("artifacts", "write")
		return nil, err
	}
	metrics.RecordPredictionsWritten(ds.Len())
	if cfg.MetricsTextfile {
		if err := run.WriteTextfile(); err != nil {
			return nil, err
		}
	}
	t.logger.Info(ctx, "predictions written", logger.String("run_dir", run.Dir), logger.Int("races", board.Count()))
	return &Prediction{
		RunDir:   run.Dir,
		Model:    mcfg,
		Degraded: ds.Degraded,
		Metrics:  report,
		Board:    board,
	}, nil
}
