package tracking_test

import (
	"context"
	"testing"

	"github.com/campuslink/beacon/internal/adapters/tracking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryTracker(t *testing.T) {
	Convey("Given a memory tracker", t, func() {
		ctx := context.Background()
		tr := tracking.NewMemoryTracker()

		Convey("When a user has not applied anywhere", func() {
			set, err := tr.Applied(ctx, "u1")
			So(err, ShouldBeNil)
			So(set, ShouldNotBeNil)
			So(set, ShouldBeEmpty)
		})

		Convey("When applications are recorded", func() {
			So(tr.Record(ctx, "u1", "p1"), ShouldBeNil)
			So(tr.Record(ctx, "u1", "p2"), ShouldBeNil)
			So(tr.Record(ctx, "u1", "p1"), ShouldBeNil)
			So(tr.Record(ctx, "u2", "p3"), ShouldBeNil)

			Convey("Then each user sees only their own posts", func() {
				set, err := tr.Applied(ctx, "u1")
				So(err, ShouldBeNil)
				So(set, ShouldResemble, map[string]struct{}{"p1": {}, "p2": {}})
			})

			Convey("Then the returned set is a copy", func() {
				set, _ := tr.Applied(ctx, "u2")
				set["p9"] = struct{}{}
				again, _ := tr.Applied(ctx, "u2")
				So(len(again), ShouldEqual, 1)
			})
		})
	})
}
