package tracking_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/campuslink/beacon/internal/adapters/redisclient"
	"github.com/campuslink/beacon/internal/adapters/tracking"
)

func TestRedisTracker(t *testing.T) {
	addr := os.Getenv("BEACON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BEACON_TEST_REDIS_ADDR not set")
	}

	Convey("Given a tracker on a live Redis", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rdb, err := redisclient.New(ctx, addr)
		So(err, ShouldBeNil)
		defer rdb.Close()

		tr := tracking.NewRedisTracker(rdb)
		u1, u2 := "u-"+uuid.NewString(), "u-"+uuid.NewString()
		defer rdb.Del(context.Background(), redisclient.AppliedKey(u1), redisclient.AppliedKey(u2))

		Convey("When a user has not applied anywhere", func() {
			set, err := tr.Applied(ctx, u1)
			So(err, ShouldBeNil)
			So(set, ShouldNotBeNil)
			So(set, ShouldBeEmpty)
		})

		Convey("When applications are recorded", func() {
			So(tr.Record(ctx, u1, "p1"), ShouldBeNil)
			So(tr.Record(ctx, u1, "p2"), ShouldBeNil)
			So(tr.Record(ctx, u1, "p1"), ShouldBeNil)
			So(tr.Record(ctx, u2, "p3"), ShouldBeNil)

			Convey("Then each user sees only their own posts", func() {
				set, err := tr.Applied(ctx, u1)
				So(err, ShouldBeNil)
				So(set, ShouldResemble, map[string]struct{}{"p1": {}, "p2": {}})

				other, err := tr.Applied(ctx, u2)
				So(err, ShouldBeNil)
				So(other, ShouldResemble, map[string]struct{}{"p3": {}})
			})

			Convey("Then the set lives under the user's applied key", func() {
				n, err := rdb.SCard(ctx, redisclient.AppliedKey(u1)).Result()
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When the connection is closed", func() {
			closed, err := redisclient.New(ctx, addr)
			So(err, ShouldBeNil)
			So(closed.Close(), ShouldBeNil)

			_, err = tracking.NewRedisTracker(closed).Applied(ctx, u1)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, u1)
		})
	})
}
