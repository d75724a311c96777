package stream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/campuslink/beacon/internal/adapters/http/stream"
	"github.com/campuslink/beacon/internal/domain/types"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestHubBroadcast(t *testing.T) {
	Convey("Given a hub serving /ws/events/{eventId}", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		hub := stream.NewHub(nil)
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle("GET /ws/events/{eventId}", stream.NewHandler(hub))
		srv := httptest.NewServer(mux)
		defer srv.Close()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events/1"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		So(waitFor(func() bool { return hub.RoomSize(stream.RoomForEvent("1")) == 1 }), ShouldBeTrue)

		Convey("When a message is broadcast to the event room", func() {
			msg := types.StreamMessage{Type: types.StreamPostCreated}
			msg.Payload.ID = "p1"
			hub.BroadcastToRoom(stream.RoomForEvent("1"), msg)
			hub.BroadcastToRoom(stream.RoomForEvent("2"), types.StreamMessage{Type: types.StreamApplicantAdded})

			Convey("Then only the subscriber of that room receives it", func() {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				_, data, err := conn.ReadMessage()
				So(err, ShouldBeNil)
				var got types.StreamMessage
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.Type, ShouldEqual, types.StreamPostCreated)
				So(got.Payload.ID, ShouldEqual, "p1")
			})
		})

		Convey("When the client disconnects", func() {
			_ = conn.Close()

			Convey("Then the room is emptied", func() {
				So(waitFor(func() bool { return hub.Clients() == 0 }), ShouldBeTrue)
			})
		})
	})
}

func TestHubStopped(t *testing.T) {
	Convey("Given a stopped hub", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		hub := stream.NewHub(nil)
		go hub.Run(ctx)
		cancel()

		Convey("Then registration is refused instead of blocking", func() {
			So(waitFor(func() bool { return !hub.Register(stream.NewClient(hub, nil, "r")) }), ShouldBeTrue)
		})
	})
}
