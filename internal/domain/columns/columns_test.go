package columns_test

import (
	"testing"

	"github.com/pranch555/F1-Prediction/internal/domain/columns"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given header variants across data vintages", t, func() {
		Convey("When the header is snake case", func() {
			tbl := table.MustNew("results", table.Ints("race_id", 1))
			name, ok := columns.Resolve(tbl, columns.Race...)

			Convey("Then it resolves to the actual header", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "race_id")
			})
		})

		Convey("When the header is upper case", func() {
			tbl := table.MustNew("results", table.Ints("RaceID", 1))
			name, ok := columns.Resolve(tbl, columns.Race...)

			Convey("Then it still resolves", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "RaceID")
			})
		})

		Convey("When several candidates are present", func() {
			tbl := table.MustNew("results",
				table.Strings("positionText", "R"),
				table.Ints("positionOrder", 3),
			)
			name, ok := columns.Resolve(tbl, columns.Finish...)

			Convey("Then the first candidate in priority order wins", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "positionOrder")
			})
		})

		Convey("When two headers normalize to the same key", func() {
			tbl := table.MustNew("results", table.Ints("raceId", 1), table.Ints("race_id", 2))
			name, ok := columns.Resolve(tbl, "RACE-ID")

			Convey("Then the first header in table order wins", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "raceId")
			})
		})

		Convey("When nothing matches", func() {
			tbl := table.MustNew("results", table.Ints("points", 25))
			name, ok := columns.Resolve(tbl, columns.Finish...)

			Convey("Then a not-found signal is returned", func() {
				So(ok, ShouldBeFalse)
				So(name, ShouldBeEmpty)
			})
		})

		Convey("When the table is nil", func() {
			_, ok := columns.Resolve(nil, columns.Race...)

			Convey("Then it reports not found without panicking", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given equivalent names", t, func() {
		Convey("Then they normalize to the same key", func() {
			So(columns.Normalize("race_id"), ShouldEqual, "raceid")
			So(columns.Normalize("raceId"), ShouldEqual, "raceid")
			So(columns.Normalize("Race ID"), ShouldEqual, "raceid")
			So(columns.Normalize("position-order"), ShouldEqual, columns.Normalize("positionOrder"))
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given a table with a grid column", t, func() {
		tbl := table.MustNew("results", table.Ints("Grid", 4))

		Convey("Then Lookup returns the column values", func() {
			col, ok := columns.Lookup(tbl, columns.Grid...)
			So(ok, ShouldBeTrue)
			v, ok := col.Float(0)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 4)
		})
	})
}
