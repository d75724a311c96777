package pods_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/campuslink/beacon/internal/adapters/pods"
	"github.com/campuslink/beacon/internal/adapters/redisclient"
	"github.com/campuslink/beacon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRedisNotifier(t *testing.T) {
	addr := os.Getenv("BEACON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BEACON_TEST_REDIS_ADDR not set")
	}

	Convey("Given a subscriber on the pods channel", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rdb, err := redisclient.New(ctx, addr)
		So(err, ShouldBeNil)
		defer rdb.Close()

		sub := rdb.Subscribe(ctx, redisclient.PodsChannel)
		defer sub.Close()
		_, err = sub.Receive(ctx)
		So(err, ShouldBeNil)

		Convey("When an event is published", func() {
			So(pods.NewRedisNotifier(rdb).Notify(ctx, sampleEvent()), ShouldBeNil)

			Convey("Then the subscriber receives it as JSON", func() {
				msg, err := sub.ReceiveMessage(ctx)
				So(err, ShouldBeNil)
				var got model.PodEvent
				So(json.Unmarshal([]byte(msg.Payload), &got), ShouldBeNil)
				So(got.PostID, ShouldEqual, "p1")
			})
		})
	})
}
