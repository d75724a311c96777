package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/beacon/internal/adapters/repository"
	"github.com/campuslink/beacon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Runs only against a real database: BEACON_TEST_POSTGRES_DSN=postgres://...
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BEACON_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BEACON_TEST_POSTGRES_DSN not set")
	}

	Convey("Given a postgres store", t, func() {
		ctx := context.Background()
		store, err := repository.NewPostgresStore(ctx, dsn)
		So(err, ShouldBeNil)
		defer store.Close()

		eventID := "evt-" + uuid.NewString()
		now := time.Now().UTC().Truncate(time.Microsecond)
		older := newPost(uuid.NewString(), eventID, now.Add(-time.Minute), 2)
		newer := newPost(uuid.NewString(), eventID, now, 2)
		newer.RequiredSkills = []string{"Go", "SQL"}
		newer.Author = model.Author{Name: "Asha", Avatar: "A", Badges: []string{"Mentor"}}

		So(store.Create(ctx, older), ShouldBeNil)
		So(store.Create(ctx, newer), ShouldBeNil)

		Convey("Then posts list newest first with their fields", func() {
			posts, err := store.ListByEvent(ctx, eventID)
			So(err, ShouldBeNil)
			So(postIDs(posts), ShouldResemble, []string{newer.ID, older.ID})
			So(posts[0].RequiredSkills, ShouldResemble, []string{"Go", "SQL"})
			So(posts[0].Author.Name, ShouldEqual, "Asha")
		})

		Convey("Then posts sharing a creation instant list latest insert first", func() {
			tieEvent := "evt-" + uuid.NewString()
			ids := make([]string, 3)
			for i := range ids {
				// Random ids would order arbitrarily; insertion order must win.
				ids[i] = uuid.NewString()
				So(store.Create(ctx, newPost(ids[i], tieEvent, now, 2)), ShouldBeNil)
			}

			posts, err := store.ListByEvent(ctx, tieEvent)
			So(err, ShouldBeNil)
			So(postIDs(posts), ShouldResemble, []string{ids[2], ids[1], ids[0]})
		})

		Convey("Then applications honor capacity", func() {
			post, err := store.AddApplication(ctx, newer.ID, application(uuid.NewString(), "u1"), now)
			So(err, ShouldBeNil)
			So(post.Applicants, ShouldHaveLength, 1)

			_, err = store.AddApplication(ctx, newer.ID, application(uuid.NewString(), "u2"), now)
			So(err, ShouldEqual, model.ErrPostFull)
		})

		Convey("Then a missing post is ErrNotFound", func() {
			_, err := store.GetByID(ctx, uuid.NewString())
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}
