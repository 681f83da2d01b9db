// Package app drives training and inference runs end to end: load tables,
// build features, cross-validate, fit, evaluate and persist artifacts.
package app

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/pranch555/F1-Prediction/internal/adapters/artifacts"
	"github.com/pranch555/F1-Prediction/internal/adapters/ingest"
	"github.com/pranch555/F1-Prediction/internal/config"
	"github.com/pranch555/F1-Prediction/internal/domain/estimator"
	"github.com/pranch555/F1-Prediction/internal/domain/evaluate"
	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
	"github.com/pranch555/F1-Prediction/internal/domain/split"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	"github.com/pranch555/F1-Prediction/pkg/metrics"
)

// Trainer runs the pipeline. It holds no per-run state.
type Trainer struct {
	logger      logger.Logger
	now         func() time.Time
	parallelism int
}

// Result summarizes a finished training run.
type Result struct {
	RunDir       string
	Features     []string
	Degraded     []string
	RollingScope features.RollingScope
	CV           artifacts.CVMetrics
	Metrics      evaluate.Report
	Board        *leaderboard.Board
}

// New creates a Trainer.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		now:         time.Now,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("trainer")
	}
	return t
}

// Train fits the configured estimator, evaluates it with grouped
// cross-validation and on the full data, and writes a run directory.
func (t *Trainer) Train(ctx context.Context, cfg *config.Config) (res *Result, err error) {
	defer func() { recordRun("train", err) }()

	mcfg := modelConfig(cfg)
	if _, err := estimator.New(mcfg); err != nil {
		metrics.RecordError("train", "model_config")
		return nil, err
	}

	tables, err := t.load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ds, err := t.build(ctx, cfg, tables, features.ModeTraining, nil)
	if err != nil {
		return nil, err
	}
	for _, name := range features.ForbiddenNames(cfg.Target.Label) {
		if slices.Contains(ds.Names, name) {
			metrics.RecordError("train", "leakage")
			return nil, fmt.Errorf("feature %q: %w", name, ErrLeakage)
		}
	}
	mcfg.Features = ds.Names

	y := features.TransformTarget(string(mcfg.Type), ds.Target, cfg.Target.Label)
	yTrue := features.Positions(ds.Target)

	cv, err := t.crossValidate(ctx, cfg, mcfg, ds, y, yTrue)
	if err != nil {
		return nil, err
	}

	all := make([]int, ds.Len())
	for i := range all {
		all[i] = i
	}
	est, err := t.fit(ctx, mcfg, ds, y, all)
	if err != nil {
		return nil, err
	}
	scores, err := estimator.Scores(est, mcfg.Type, ds.X)
	if err != nil {
		return nil, fmt.Errorf("score full data: %w", err)
	}

	started := time.Now()
	report, err := t.evaluator(cfg, true).Evaluate(yTrue, scores, ds.Groups)
	if err != nil {
		metrics.RecordError("evaluate", "full")
		return nil, err
	}
	if cfg.Evaluation.Bootstrap.Enabled {
		metrics.RecordBootstrapDuration(float64(time.Since(started).Milliseconds()))
	}
	metrics.UpdateEvaluation("full", report)
	t.logger.Info(ctx, "full-fit evaluation", reportFields(report)...)

	board, err := buildBoard(ds, tables, scores, ds.Target)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Features:     ds.Names,
		Degraded:     ds.Degraded,
		RollingScope: ds.RollingScope,
		CV:           cv,
		Metrics:      report,
		Board:        board,
	}
	model, err := estimator.Marshal(mcfg, est)
	if err != nil {
		return nil, err
	}
	run, err := t.store(cfg).Create(ctx)
	if err != nil {
		return nil, err
	}
	res.RunDir = run.Dir
	if err := writeAll(
		func() error { return run.WriteConfig(cfg) },
		func() error { return run.WriteMetrics(report) },
		func() error { return run.WriteCVMetrics(cv) },
		func() error { return run.WriteState(ds.State) },
		func() error { return run.WriteModel(model) },
		func() error { return run.WritePredictions(board) },
		func() error { return run.WriteReport("Training report", report, board) },
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
	t.logger.Info(ctx, "training complete", logger.String("run_dir", run.Dir))
	return res, nil
}

func (t *Trainer) load(ctx context.Context, cfg *config.Config) (table.Set, error) {
	return ingest.New(
		ingest.WithDir(cfg.Data.RawDir),
		ingest.WithFiles(cfg.Data.Files),
		ingest.WithLogger(t.logger),
	).Load(ctx)
}

func (t *Trainer) build(ctx context.Context, cfg *config.Config, tables table.Set, mode features.Mode, state *features.FittedState) (*features.Dataset, error) {
	echo, err := cfg.Echo()
	if err != nil {
		return nil, err
	}
	ds, err := features.NewBuilder(
		features.WithFormWindow(cfg.Features.FormWindow),
		features.WithReuseFittedMeans(cfg.Features.ReuseFittedMeans),
		features.WithConfigEcho(echo),
	).Build(ctx, tables, mode, state)
	if err != nil {
		metrics.RecordError("features", "build")
		return nil, err
	}

	metrics.UpdateDataset(ds.Len(), ds.Names, ds.Degraded)
	t.logger.Info(ctx, "dataset built",
		logger.String("mode", mode.String()),
		logger.Int("rows", ds.Len()),
		logger.Strings("features", ds.Names),
	)
	if !ds.GroupingAvailable {
		t.logger.Warn(ctx, "race key not found, all rows form one group")
	}
	if ds.RollingScope == features.ScopePooled {
		t.logger.Warn(ctx, "no season metadata, rolling form pooled across seasons")
	}
	if len(ds.Degraded) > 0 {
		t.logger.Warn(ctx, "features degraded", logger.Strings("features", ds.Degraded))
	}
	return ds, nil
}

// crossValidate fits one model per grouped fold and evaluates it on the
// held-out races. Folds with an empty side are skipped.
func (t *Trainer) crossValidate(ctx context.Context, cfg *config.Config, mcfg estimator.ModelConfig, ds *features.Dataset, y, yTrue []float64) (artifacts.CVMetrics, error) {
	var cv artifacts.CVMetrics
	var opts []split.Option
	if cfg.Split.Shuffle {
		opts = append(opts, split.WithShuffle(cfg.Split.Seed))
	}
	folds, err := split.GroupKFold(cfg.Split.NSplits, ds.Groups, opts...)
	if err != nil {
		return cv, err
	}
	eval := t.evaluator(cfg, false)
	for k, fold := range folds {
		if err := ctx.Err(); err != nil {
			return cv, err
		}
		if len(fold.Train) == 0 || len(fold.Validation) == 0 {
			t.logger.Warn(ctx, "skipping degenerate fold", logger.Int("fold", k),
				logger.Int("train", len(fold.Train)), logger.Int("validation", len(fold.Validation)))
			continue
		}
		started := time.Now()
		est, err := t.fit(ctx, mcfg, ds, y, fold.Train)
		if err != nil {
			return cv, fmt.Errorf("fold %d: %w", k, err)
		}
		scores, err := estimator.Scores(est, mcfg.Type, selectRows(ds.X, fold.Validation))
		if err != nil {
			return cv, fmt.Errorf("fold %d: %w", k, err)
		}
		report, err := eval.Evaluate(pick(yTrue, fold.Validation), scores, pick(ds.Groups, fold.Validation))
		if err != nil {
			return cv, fmt.Errorf("fold %d: %w", k, err)
		}
		metrics.RecordFoldDuration(float64(time.Since(started).Milliseconds()))
		t.logger.Info(ctx, "fold evaluated", append([]logger.Field{logger.Int("fold", k)}, reportFields(report)...)...)
		cv.Folds = append(cv.Folds, report)
	}
	if len(cv.Folds) == 0 {
		metrics.RecordError("split", "no_folds")
		return cv, fmt.Errorf("%d folds over %d groups: %w", len(folds), len(features.Distinct(ds.Groups)), ErrNoFolds)
	}
	cv.Mean = meanReport(cv.Folds)
	metrics.UpdateEvaluation("cv", cv.Mean)
	t.logger.Info(ctx, "cross-validation mean", reportFields(cv.Mean)...)
	return cv, nil
}

// fit trains a fresh estimator on the given rows. Ranking estimators get
// their rows reordered so that every race is contiguous.
func (t *Trainer) fit(ctx context.Context, mcfg estimator.ModelConfig, ds *features.Dataset, y []float64, idx []int) (estimator.Estimator, error) {
	var sizes []int
	if mcfg.Type == estimator.TypeRanking {
		idx = byGroup(idx, ds.Groups)
		sizes = features.GroupSizes(pick(ds.Groups, idx))
	}
	est, err := estimator.New(mcfg)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	if err := est.Fit(selectRows(ds.X, idx), pick(y, idx), sizes); err != nil {
		metrics.RecordError("fit", mcfg.Name)
		return nil, fmt.Errorf("fit %s: %w", mcfg.Name, err)
	}
	elapsed := time.Since(started)
	metrics.RecordFitLatency(mcfg.Name, float64(elapsed.Milliseconds()))
	t.logger.Debug(ctx, "estimator fitted", logger.String("model", mcfg.Name),
		logger.Int("rows", len(idx)), logger.Duration("elapsed", elapsed))
	return est, nil
}

func (t *Trainer) evaluator(cfg *config.Config, withBootstrap bool) *evaluate.Evaluator {
	ev := cfg.Evaluation
	return evaluate.New(
		evaluate.WithTopK(ev.TopK...),
		evaluate.WithMetrics(ev.Metrics...),
		evaluate.WithBootstrap(evaluate.Bootstrap{
			Enabled: withBootstrap && ev.Bootstrap.Enabled,
			Samples: ev.Bootstrap.NSamples,
			Seed:    ev.Bootstrap.Seed,
		}),
		evaluate.WithParallelism(t.parallelism),
	)
}

func (t *Trainer) store(cfg *config.Config) *artifacts.Store {
	return artifacts.New(
		artifacts.WithRoot(cfg.OutputRoot),
		artifacts.WithExperiment(cfg.ExperimentName),
		artifacts.WithClock(t.now),
		artifacts.WithLogger(t.logger),
	)
}

func modelConfig(cfg *config.Config) estimator.ModelConfig {
	return estimator.ModelConfig{
		Name:   cfg.Model.Name,
		Type:   estimator.Type(cfg.Model.Type),
		Params: cfg.Model.Params,
		Seed:   cfg.Seed,
	}.Normalize()
}

func buildBoard(ds *features.Dataset, tables table.Set, scores []float64, actual []int) (*leaderboard.Board, error) {
	grid, _ := ds.Column(features.FeatureGrid)
	return leaderboard.Build(leaderboard.Input{
		Groups:  ds.Groups,
		Drivers: ds.Keys.Driver,
		Teams:   ds.Keys.Team,
		Grid:    grid,
		Actual:  actual,
	}, scores,
		leaderboard.WithRaces(ingest.RaceInfo(tables)),
		leaderboard.WithDriverNames(ingest.DriverNames(tables)),
		leaderboard.WithTeamNames(ingest.TeamNames(tables)),
	)
}

func reportFields(report map[string]float64) []logger.Field {
	keys := evaluate.Report(report).Keys()
	fields := make([]logger.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, logger.Float64(k, report[k]))
	}
	return fields
}

func recordRun(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordRun(command, status)
}

func writeAll(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
