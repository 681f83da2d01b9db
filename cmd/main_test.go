package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const testResults = `raceId,driverId,constructorId,grid,positionOrder
1,10,100,1,1
1,20,100,2,2
1,30,200,3,3
2,10,100,2,2
2,20,100,1,1
2,30,200,3,3
`

func writeFixture(t *testing.T) (configPath, outputRoot string) {
	t.Helper()
	raw := t.TempDir()
	if err := os.WriteFile(filepath.Join(raw, "results.csv"), []byte(testResults), 0o644); err != nil {
		t.Fatal(err)
	}
	outputRoot = t.TempDir()
	configPath = filepath.Join(t.TempDir(), "config.yaml")
	body := "log_level: error\n" +
		"output_root: " + outputRoot + "\n" +
		"experiment_name: cli\n" +
		"data:\n  raw_dir: " + raw + "\n" +
		"model:\n  name: grid_baseline\n  type: ranking\n" +
		"split:\n  n_splits: 2\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, outputRoot
}

func execute(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return strings.TrimSpace(out.String()), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a config file pointing at a raw directory", t, func() {
		configPath, outputRoot := writeFixture(t)
		ctx := context.Background()

		convey.Convey("When train runs", func() {
			runDir, err := execute(ctx, "train", "--config", configPath)

			convey.Convey("Then the run directory is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(runDir, convey.ShouldStartWith, filepath.Join(outputRoot, "cli"))
				_, statErr := os.Stat(filepath.Join(runDir, "model.json"))
				convey.So(statErr, convey.ShouldBeNil)
			})

			convey.Convey("And predict scores with the trained run", func() {
				predDir, err := execute(ctx, "predict", "--config", configPath, "--model-dir", runDir)
				convey.So(err, convey.ShouldBeNil)
				convey.So(predDir, convey.ShouldNotEqual, runDir)
				_, statErr := os.Stat(filepath.Join(predDir, "predictions.csv"))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When predict is called without a model directory", func() {
			_, err := execute(ctx, "predict", "--config", configPath)

			convey.Convey("Then the missing flag is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "model-dir")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := execute(ctx, "train", "--config", filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
