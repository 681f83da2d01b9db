package table_test

import (
	"errors"
	"math"
	"testing"

	"github.com/pranch555/F1-Prediction/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given columns of equal length", t, func() {
		tbl, err := table.New("results",
			table.Ints("raceId", 1, 1, 2),
			table.Strings("positionText", "1", "DNF", `\N`),
		)

		Convey("Then the table is built", func() {
			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, 3)
			So(tbl.Empty(), ShouldBeFalse)
			So(tbl.Columns(), ShouldResemble, []string{"raceId", "positionText"})
		})

		Convey("And numeric coercion marks text and nulls as missing", func() {
			col, ok := tbl.Column("positionText")
			So(ok, ShouldBeTrue)
			v, ok := col.Float(0)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
			_, ok = col.Float(1)
			So(ok, ShouldBeFalse)
			vals := col.Floats()
			So(math.IsNaN(vals[2]), ShouldBeTrue)
		})

		Convey("And unknown columns are reported absent", func() {
			_, ok := tbl.Column("grid")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given ragged columns", t, func() {
		_, err := table.New("bad", table.Ints("a", 1, 2), table.Ints("b", 1))

		Convey("Then construction fails", func() {
			So(errors.Is(err, table.ErrRaggedColumns), ShouldBeTrue)
		})
	})

	Convey("Given duplicate column names", t, func() {
		_, err := table.New("bad", table.Ints("a", 1), table.Ints("a", 2))

		Convey("Then construction fails", func() {
			So(errors.Is(err, table.ErrDuplicateColumn), ShouldBeTrue)
		})
	})

	Convey("Given a set with an empty table", t, func() {
		set := table.Set{
			"results":    table.MustNew("results", table.Ints("raceId", 1)),
			"qualifying": table.MustNew("qualifying"),
		}

		Convey("Then only non-empty tables are returned", func() {
			_, ok := set.Get("results")
			So(ok, ShouldBeTrue)
			_, ok = set.Get("qualifying")
			So(ok, ShouldBeFalse)
			_, ok = set.Get("races")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a float column with NaN", t, func() {
		col := table.Floats("q", 1.5, math.NaN())

		Convey("Then NaN round-trips as missing", func() {
			So(col.String(1), ShouldEqual, "")
			v, ok := col.Float(0)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1.5)
		})
	})
}
