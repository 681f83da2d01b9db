package ingest_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pranch555/F1-Prediction/internal/adapters/ingest"
	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quiet() logger.Logger {
	return logger.New(logger.WithWriter(io.Discard))
}

var defaultFiles = map[string]string{
	features.TableResults:      "results.csv",
	features.TableRaces:        "races.csv",
	features.TableQualifying:   "qualifying.csv",
	features.TableDrivers:      "drivers.csv",
	features.TableConstructors: "constructors.csv",
}

func TestReadCSV(t *testing.T) {
	Convey("Given CSV with a BOM and padded cells", t, func() {
		body := "\ufeffraceId, driverId ,grid\n1, 10 ,3\n1,20\n"
		tbl, err := ingest.ReadCSV(strings.NewReader(body), "results")

		Convey("Then headers and cells are trimmed and short rows padded", func() {
			So(err, ShouldBeNil)
			So(tbl.Name(), ShouldEqual, "results")
			So(tbl.Columns(), ShouldResemble, []string{"raceId", "driverId", "grid"})
			So(tbl.Len(), ShouldEqual, 2)
			driver, _ := tbl.Column("driverId")
			So(driver.Strings(), ShouldResemble, []string{"10", "20"})
			grid, _ := tbl.Column("grid")
			So(grid.String(1), ShouldEqual, "")
		})
	})

	Convey("Given an empty input", t, func() {
		tbl, err := ingest.ReadCSV(strings.NewReader(""), "races")

		Convey("Then an empty table is returned", func() {
			So(err, ShouldBeNil)
			So(tbl.Empty(), ShouldBeTrue)
		})
	})

	Convey("Given repeated headers", t, func() {
		tbl, err := ingest.ReadCSV(strings.NewReader("a,a,b,a\n1,2,3,4\n"), "x")

		Convey("Then repeats are suffixed and every cell is kept", func() {
			So(err, ShouldBeNil)
			So(tbl.Columns(), ShouldResemble, []string{"a", "a.1", "b", "a.2"})
			second, _ := tbl.Column("a.1")
			So(second.String(0), ShouldEqual, "2")
		})
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given a raw directory with results and races only", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "results.csv", "raceId,driverId,grid,positionOrder\n1,10,1,1\n1,20,2,2\n")
		writeFile(t, dir, "races.csv", "raceId,year,round,name\n1,2021,1,Bahrain Grand Prix\n")
		loader := ingest.New(ingest.WithDir(dir), ingest.WithFiles(defaultFiles), ingest.WithLogger(quiet()))

		set, err := loader.Load(ctx)

		Convey("Then present tables load and missing optional ones are skipped", func() {
			So(err, ShouldBeNil)
			So(set, ShouldContainKey, features.TableResults)
			So(set, ShouldContainKey, features.TableRaces)
			So(set, ShouldNotContainKey, features.TableQualifying)
			results, _ := set.Get(features.TableResults)
			So(results.Len(), ShouldEqual, 2)
		})

		Convey("And race metadata is available for leaderboards", func() {
			info := ingest.RaceInfo(set)
			So(info["1"], ShouldResemble, leaderboard.RaceInfo{Name: "Bahrain Grand Prix", Year: "2021", Round: "1"})
			So(ingest.DriverNames(set), ShouldBeEmpty)
		})
	})

	Convey("Given an optional table that cannot be parsed", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "results.csv", "raceId,driverId,positionOrder\n1,10,1\n")
		writeFile(t, dir, "qualifying.csv", "raceId,driverId,position,position\n1,10,\"2\n")
		loader := ingest.New(ingest.WithDir(dir), ingest.WithFiles(defaultFiles), ingest.WithLogger(quiet()))

		set, err := loader.Load(ctx)

		Convey("Then it is skipped and loading continues", func() {
			So(err, ShouldBeNil)
			So(set, ShouldContainKey, features.TableResults)
			So(set, ShouldNotContainKey, features.TableQualifying)
		})
	})

	Convey("Given a raw directory without results", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "races.csv", "raceId,year\n1,2021\n")
		loader := ingest.New(ingest.WithDir(dir), ingest.WithFiles(defaultFiles), ingest.WithLogger(quiet()))

		_, err := loader.Load(ctx)

		Convey("Then ErrMissingTable is returned", func() {
			So(errors.Is(err, features.ErrMissingTable), ShouldBeTrue)
		})
	})

	Convey("Given a results file with only a header", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "results.csv", "raceId,positionOrder\n")
		loader := ingest.New(ingest.WithDir(dir), ingest.WithFiles(map[string]string{features.TableResults: "results.csv"}), ingest.WithLogger(quiet()))

		_, err := loader.Load(ctx)

		Convey("Then ErrMissingTable is returned", func() {
			So(errors.Is(err, features.ErrMissingTable), ShouldBeTrue)
		})
	})

	Convey("Given no results entry in the file map", t, func() {
		loader := ingest.New(ingest.WithFiles(map[string]string{features.TableRaces: "races.csv"}), ingest.WithLogger(quiet()))

		_, err := loader.Load(ctx)

		Convey("Then ErrMissingTable is returned", func() {
			So(errors.Is(err, features.ErrMissingTable), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "results.csv", "raceId,positionOrder\n1,1\n")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := ingest.New(ingest.WithDir(dir), ingest.WithFiles(defaultFiles), ingest.WithLogger(quiet())).Load(cctx)

		Convey("Then loading stops", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestLookups(t *testing.T) {
	Convey("Given drivers and constructors tables", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "results.csv", "raceId,driverId,positionOrder\n1,1,1\n")
		writeFile(t, dir, "drivers.csv", "driverId,driverRef,forename,surname\n1,hamilton,Lewis,Hamilton\n2,x,,Solo\n")
		writeFile(t, dir, "constructors.csv", "constructorId,constructorRef,name\n131,mercedes,Mercedes\n")
		set, err := ingest.New(ingest.WithDir(dir), ingest.WithFiles(defaultFiles), ingest.WithLogger(quiet())).Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then driver names join forename and surname", func() {
			So(ingest.DriverNames(set), ShouldResemble, map[string]string{"1": "Lewis Hamilton", "2": "Solo"})
		})

		Convey("And constructor names are keyed by id", func() {
			So(ingest.TeamNames(set), ShouldResemble, map[string]string{"131": "Mercedes"})
		})
	})
}
