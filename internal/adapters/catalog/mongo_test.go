package catalog_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuslink/beacon/internal/adapters/catalog"
	"github.com/campuslink/beacon/internal/domain/model"
)

func TestMongoCatalog(t *testing.T) {
	uri := os.Getenv("BEACON_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BEACON_TEST_MONGO_URI not set")
	}

	Convey("Given a catalog on a fresh MongoDB database", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		database := "beacon_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		c, err := catalog.NewMongoCatalog(ctx, uri, database)
		So(err, ShouldBeNil)
		defer func() { _ = c.Disconnect(context.Background()) }()
		defer dropDatabase(uri, database)

		// Mongo keeps milliseconds.
		now := time.Now().UTC().Truncate(time.Millisecond)
		seed := catalog.SeedEvents(now)
		So(c.EnsureSeed(ctx, seed), ShouldBeNil)

		Convey("When listing everything", func() {
			events, err := c.List(ctx, "")
			So(err, ShouldBeNil)

			Convey("Then every seed event is there, newest first", func() {
				So(len(events), ShouldEqual, len(seed))
				for i := 1; i < len(events); i++ {
					So(events[i-1].CreatedAt.Before(events[i].CreatedAt), ShouldBeFalse)
				}
				So(events[0].ID, ShouldEqual, "1")
			})
		})

		Convey("When the seed runs again over an edited event", func() {
			edited := seed[0]
			edited.Title = "Renamed elsewhere"
			So(c.Create(ctx, model.Event{ID: "extra", Title: "Extra", Category: model.CategoryFest, MaxTeamSize: 2, CreatedAt: now}), ShouldBeNil)
			So(c.EnsureSeed(ctx, append([]model.Event{edited}, seed[1:]...)), ShouldBeNil)

			Convey("Then existing documents are left untouched", func() {
				got, err := c.Get(ctx, "1")
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, seed[0].Title)
				So(got.Skills, ShouldResemble, seed[0].Skills)
				So(got.MaxTeamSize, ShouldEqual, seed[0].MaxTeamSize)

				events, _ := c.List(ctx, "")
				So(len(events), ShouldEqual, len(seed)+1)
			})
		})

		Convey("When filtering by category", func() {
			events, err := c.List(ctx, model.CategoryHackathon)
			So(err, ShouldBeNil)

			Convey("Then only that category is returned", func() {
				So(len(events), ShouldBeGreaterThan, 0)
				for _, e := range events {
					So(e.Category, ShouldEqual, model.CategoryHackathon)
				}
			})
		})

		Convey("When filtering by a category with no events", func() {
			events, err := c.List(ctx, "Nothing")
			So(err, ShouldBeNil)
			So(events, ShouldNotBeNil)
			So(events, ShouldBeEmpty)
		})

		Convey("When an event is created", func() {
			e := model.Event{ID: "new", Title: "Late Night Jam", Category: model.CategoryOthers, MaxTeamSize: 3, CreatedAt: now.Add(time.Minute)}
			So(c.Create(ctx, e), ShouldBeNil)

			Convey("Then it can be fetched and sorts first", func() {
				got, err := c.Get(ctx, "new")
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, e.Title)
				So(got.CreatedAt.Equal(e.CreatedAt), ShouldBeTrue)

				events, _ := c.List(ctx, "")
				So(events[0].ID, ShouldEqual, "new")
			})

			Convey("Then the same id cannot be created twice", func() {
				So(c.Create(ctx, e), ShouldNotBeNil)
			})
		})

		Convey("When fetching an unknown event", func() {
			_, err := c.Get(ctx, "missing")
			So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
		})
	})
}

func dropDatabase(uri, database string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return
	}
	defer func() { _ = client.Disconnect(ctx) }()
	_ = client.Database(database).Drop(ctx)
}
