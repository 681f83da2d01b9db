package split_test

import (
	"errors"
	"testing"

	"github.com/pranch555/F1-Prediction/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

func groupsOf(groups []string, rows []int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range rows {
		out[groups[r]] = struct{}{}
	}
	return out
}

func TestGroupKFold(t *testing.T) {
	Convey("Given rows from four races", t, func() {
		groups := []string{"a", "a", "b", "b", "b", "c", "d", "d"}

		Convey("When splitting into two folds without shuffle", func() {
			folds, err := split.GroupKFold(2, groups)
			So(err, ShouldBeNil)
			So(folds, ShouldHaveLength, 2)

			Convey("Then groups are dealt round robin in first-seen order", func() {
				So(folds[0].Validation, ShouldResemble, []int{0, 1, 5})
				So(folds[1].Validation, ShouldResemble, []int{2, 3, 4, 6, 7})
			})

			Convey("And each fold is disjoint and covers every row", func() {
				for _, f := range folds {
					So(len(f.Train)+len(f.Validation), ShouldEqual, len(groups))
					train := groupsOf(groups, f.Train)
					for g := range groupsOf(groups, f.Validation) {
						_, leaked := train[g]
						So(leaked, ShouldBeFalse)
					}
				}
			})

			Convey("And every row is validated exactly once", func() {
				seen := make(map[int]int)
				for _, f := range folds {
					for _, r := range f.Validation {
						seen[r]++
					}
				}
				So(seen, ShouldHaveLength, len(groups))
				for _, c := range seen {
					So(c, ShouldEqual, 1)
				}
			})
		})

		Convey("When shuffling with a seed", func() {
			first, err := split.GroupKFold(3, groups, split.WithShuffle(7))
			So(err, ShouldBeNil)
			second, _ := split.GroupKFold(3, groups, split.WithShuffle(7))

			Convey("Then the split is reproducible", func() {
				So(first, ShouldResemble, second)
			})

			Convey("And groups still never straddle folds", func() {
				for _, f := range first {
					train := groupsOf(groups, f.Train)
					for g := range groupsOf(groups, f.Validation) {
						_, leaked := train[g]
						So(leaked, ShouldBeFalse)
					}
				}
			})
		})

		Convey("When asking for more folds than races", func() {
			folds, err := split.GroupKFold(5, groups)

			Convey("Then n folds come back and the extras validate nothing", func() {
				So(err, ShouldBeNil)
				So(folds, ShouldHaveLength, 5)
				So(folds[4].Validation, ShouldBeEmpty)
				So(folds[4].Train, ShouldHaveLength, len(groups))
			})
		})
	})

	Convey("Given invalid arguments", t, func() {
		Convey("Then n below two is rejected", func() {
			_, err := split.GroupKFold(1, []string{"a", "b"})
			So(errors.Is(err, split.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("Then empty groups are rejected", func() {
			_, err := split.GroupKFold(3, nil)
			So(errors.Is(err, split.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}
