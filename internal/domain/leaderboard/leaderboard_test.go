package leaderboard_test

import (
	"errors"
	"testing"

	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRankWithinGroups(t *testing.T) {
	Convey("Given scores across two races", t, func() {
		scores := []float64{0.2, 0.9, 0.5, 0.5, 0.1}
		groups := []string{"a", "a", "b", "b", "a"}

		Convey("Then ranks restart per race and ties keep row order", func() {
			So(leaderboard.RankWithinGroups(scores, groups), ShouldResemble, []int{2, 1, 1, 2, 3})
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given scored rows with actual results", t, func() {
		in := leaderboard.Input{
			Groups:  []string{"1", "1", "1", "2", "2"},
			Drivers: []string{"10", "20", "30", "10", "20"},
			Teams:   []string{"100", "100", "200", "100", "100"},
			Grid:    []float64{1, 2, 3, 2, 1},
			Actual:  []int{2, 1, 3, 1, 2},
		}
		scores := []float64{-1, -2, -3, -2, -1}

		board, err := leaderboard.Build(in, scores,
			leaderboard.WithRaces(map[string]leaderboard.RaceInfo{"1": {Name: "Bahrain Grand Prix", Year: "2021", Round: "1"}}),
			leaderboard.WithDriverNames(map[string]string{"10": "Lewis Hamilton"}),
			leaderboard.WithTeamNames(map[string]string{"100": "Mercedes"}),
		)
		So(err, ShouldBeNil)

		Convey("Then races keep first-seen order", func() {
			So(board.Count(), ShouldEqual, 2)
			So(board.Races()[0].ID, ShouldEqual, "1")
			So(board.Races()[0].Info.Name, ShouldEqual, "Bahrain Grand Prix")
			So(board.HasActual(), ShouldBeTrue)
		})

		Convey("Then entries are in predicted order with deltas", func() {
			race, err := board.Race("1")
			So(err, ShouldBeNil)
			first := race.Entries[0]
			So(first.Rank, ShouldEqual, 1)
			So(first.DriverName, ShouldEqual, "Lewis Hamilton")
			So(first.TeamName, ShouldEqual, "Mercedes")
			So(first.Actual, ShouldEqual, 2)
			So(first.Delta, ShouldEqual, 1)
			So(race.Entries[1].Delta, ShouldEqual, -1)
		})

		Convey("Then TopN trims to the field size", func() {
			top, err := board.TopN("2", 10)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)
			So(top[0].DriverID, ShouldEqual, "20")
		})

		Convey("Then Entries flattens every race", func() {
			So(board.Entries(), ShouldHaveLength, 5)
		})

		Convey("Then unknown races and bad limits fail", func() {
			_, err := board.TopN("9", 3)
			So(errors.Is(err, leaderboard.ErrNotFound), ShouldBeTrue)
			_, err = board.TopN("1", 0)
			So(errors.Is(err, leaderboard.ErrInvalidLimit), ShouldBeTrue)
		})
	})

	Convey("Given misaligned input", t, func() {
		_, err := leaderboard.Build(leaderboard.Input{Groups: []string{"1"}, Drivers: []string{"a", "b"}}, []float64{1})

		Convey("Then Build refuses it", func() {
			So(errors.Is(err, leaderboard.ErrShape), ShouldBeTrue)
		})
	})
}
