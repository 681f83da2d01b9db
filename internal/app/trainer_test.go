package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pranch555/F1-Prediction/internal/adapters/artifacts"
	"github.com/pranch555/F1-Prediction/internal/app"
	"github.com/pranch555/F1-Prediction/internal/config"
	"github.com/pranch555/F1-Prediction/internal/domain/estimator"
	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const resultsCSV = `raceId,driverId,constructorId,grid,positionOrder
1,10,100,1,1
1,20,100,2,2
1,30,200,3,3
2,10,100,1,1
2,20,100,2,2
2,30,200,3,3
`

const racesCSV = `raceId,year,round,name
1,2021,1,Bahrain Grand Prix
2,2021,2,Emilia Romagna Grand Prix
`

const driversCSV = `driverId,forename,surname
10,Lewis,Hamilton
20,Valtteri,Bottas
30,Max,Verstappen
`

func writeRaw(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(t *testing.T, rawDir string) *config.Config {
	cfg := config.New()
	cfg.Data.RawDir = rawDir
	cfg.OutputRoot = t.TempDir()
	cfg.ExperimentName = "test"
	cfg.Model.Name = estimator.NameGridBaseline
	cfg.Model.Type = string(estimator.TypeRanking)
	cfg.Split.NSplits = 2
	cfg.Evaluation.TopK = []int{1, 3}
	cfg.Evaluation.Bootstrap.Enabled = true
	cfg.Evaluation.Bootstrap.NSamples = 50
	return cfg
}

func newTrainer() *app.Trainer {
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return app.New(
		app.WithLogger(logger.New(logger.WithWriter(io.Discard))),
		app.WithClock(clock),
		app.WithParallelism(2),
	)
}

func TestTrain(t *testing.T) {
	ctx := context.Background()

	Convey("Given two races that finish in grid order", t, func() {
		raw := writeRaw(t, map[string]string{
			"results.csv": resultsCSV,
			"races.csv":   racesCSV,
			"drivers.csv": driversCSV,
		})
		cfg := testConfig(t, raw)

		Convey("When the grid baseline is trained", func() {
			res, err := newTrainer().Train(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then every fold and the full fit score perfectly", func() {
				So(res.CV.Folds, ShouldHaveLength, 2)
				So(res.CV.Mean["ndcg@3"], ShouldAlmostEqual, 1.0)
				So(res.Metrics["ndcg@1"], ShouldAlmostEqual, 1.0)
				So(res.Metrics["ndcg@3"], ShouldAlmostEqual, 1.0)
				So(res.Metrics["map@3"], ShouldAlmostEqual, 1.0)
				So(res.Metrics["spearman"], ShouldAlmostEqual, 1.0)
				So(res.Metrics["rmse"], ShouldAlmostEqual, 0.0)
			})

			Convey("And bootstrap intervals are reported", func() {
				So(res.Metrics, ShouldContainKey, "ndcg@3_lo")
				So(res.Metrics["ndcg@3_hi"], ShouldAlmostEqual, 1.0)
			})

			Convey("And leaderboards carry names and zero deltas", func() {
				So(res.Board.Count(), ShouldEqual, 2)
				top, err := res.Board.TopN("1", 1)
				So(err, ShouldBeNil)
				So(top[0].DriverName, ShouldEqual, "Lewis Hamilton")
				for _, e := range res.Board.Entries() {
					So(e.Delta, ShouldEqual, 0)
				}
			})

			Convey("And qualifying is reported as degraded", func() {
				So(res.Degraded, ShouldContain, features.FeatureQualifying)
				So(res.RollingScope, ShouldEqual, features.ScopeSeason)
			})

			Convey("And the run directory holds every artifact", func() {
				So(filepath.Dir(res.RunDir), ShouldEqual, filepath.Join(cfg.OutputRoot, "test"))
				for _, name := range []string{
					artifacts.FileConfig, artifacts.FileMetrics, artifacts.FileCVMetrics,
					artifacts.FileState, artifacts.FileModel, artifacts.FilePredictions,
					artifacts.FileReport, artifacts.FileTextfile,
				} {
					_, err := os.Stat(filepath.Join(res.RunDir, name))
					So(err, ShouldBeNil)
				}
				report, _ := os.ReadFile(filepath.Join(res.RunDir, artifacts.FileReport))
				So(string(report), ShouldContainSubstring, "Bahrain Grand Prix 2021 (round 1)")
			})

			Convey("And the saved model predicts the same order", func() {
				pred, err := newTrainer().Predict(ctx, cfg, res.RunDir)
				So(err, ShouldBeNil)
				So(pred.Model.Name, ShouldEqual, estimator.NameGridBaseline)
				So(pred.Metrics["ndcg@3"], ShouldAlmostEqual, 1.0)
				So(pred.RunDir, ShouldNotEqual, res.RunDir)
				raw, _ := os.ReadFile(filepath.Join(pred.RunDir, artifacts.FilePredictions))
				So(strings.Count(string(raw), "\n"), ShouldEqual, 7)
			})
		})

		Convey("When a pairwise ranker is trained", func() {
			cfg.Model.Name = estimator.NamePairwiseRanker
			cfg.Evaluation.Bootstrap.Enabled = false
			res, err := newTrainer().Train(ctx, cfg)

			Convey("Then the run completes with finite metrics", func() {
				So(err, ShouldBeNil)
				So(res.Metrics, ShouldContainKey, "ndcg@3")
				So(res.Metrics, ShouldNotContainKey, "ndcg@3_lo")
				So(res.Metrics["ndcg@3"], ShouldBeBetweenOrEqual, 0.0, 1.0)
			})
		})

		Convey("When a regression model is trained", func() {
			cfg.Model.Name = estimator.NameLinearRegression
			cfg.Model.Type = string(estimator.TypeRegression)
			cfg.Model.Params = map[string]any{"alpha": 1.0}
			cfg.MetricsTextfile = false
			res, err := newTrainer().Train(ctx, cfg)

			Convey("Then no textfile is written", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(res.RunDir, artifacts.FileTextfile))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the model and type do not match", func() {
			cfg.Model.Name = estimator.NameLinearRegression
			cfg.Model.Type = string(estimator.TypeRanking)
			_, err := newTrainer().Train(ctx, cfg)

			Convey("Then ErrUnsupported is returned before any work", func() {
				So(errors.Is(err, estimator.ErrUnsupported), ShouldBeTrue)
			})
		})
	})

	Convey("Given one race that follows the grid and one that does not", t, func() {
		raw := writeRaw(t, map[string]string{
			"results.csv": `raceId,driverId,constructorId,grid,positionOrder
1,1,100,1,1
1,2,100,2,2
1,3,200,3,3
2,1,100,2,3
2,2,100,3,1
2,3,200,1,2
`,
			"races.csv": racesCSV,
		})
		cfg := testConfig(t, raw)
		cfg.Evaluation.Bootstrap.Enabled = false

		Convey("When the grid baseline is cross-validated over two folds", func() {
			res, err := newTrainer().Train(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then the grid-order race scores perfectly and the other strictly lower", func() {
				So(res.CV.Folds, ShouldHaveLength, 2)
				So(res.CV.Folds[0]["ndcg@3"], ShouldAlmostEqual, 1.0)
				So(res.CV.Folds[1]["ndcg@3"], ShouldBeLessThan, 1.0)
				So(res.Metrics["ndcg@3"], ShouldBeLessThan, 1.0)
			})

			Convey("And the second race is ranked by starting slot", func() {
				race, err := res.Board.Race("2")
				So(err, ShouldBeNil)
				So(race.Entries[0].DriverID, ShouldEqual, "3")
				So(race.Entries[0].Actual, ShouldEqual, 2)
			})
		})
	})

	Convey("Given results without a race key", t, func() {
		raw := writeRaw(t, map[string]string{
			"results.csv": "driverId,grid,positionOrder\n10,1,1\n20,2,2\n",
		})
		cfg := testConfig(t, raw)

		Convey("When training", func() {
			_, err := newTrainer().Train(ctx, cfg)

			Convey("Then no fold can be evaluated", func() {
				So(errors.Is(err, app.ErrNoFolds), ShouldBeTrue)
			})
		})
	})

	Convey("Given a raw directory without results", t, func() {
		cfg := testConfig(t, writeRaw(t, map[string]string{"races.csv": racesCSV}))

		Convey("When training", func() {
			_, err := newTrainer().Train(ctx, cfg)

			Convey("Then ErrMissingTable is returned", func() {
				So(errors.Is(err, features.ErrMissingTable), ShouldBeTrue)
			})
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given a directory that is not a run", t, func() {
		cfg := testConfig(t, t.TempDir())

		Convey("When predicting", func() {
			_, err := newTrainer().Predict(context.Background(), cfg, filepath.Join(cfg.OutputRoot, "missing"))

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, artifacts.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
