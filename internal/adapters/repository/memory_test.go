package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/beacon/internal/adapters/repository"
	"github.com/campuslink/beacon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newPost(id, eventID string, created time.Time, maxTeam int) model.TeamPost {
	return model.TeamPost{
		ID:          id,
		EventID:     eventID,
		AuthorID:    "author-" + id,
		MaxTeamSize: maxTeam,
		Applicants:  []model.Application{},
		CreatedAt:   created,
		ExpiresAt:   created.Add(24 * time.Hour),
	}
}

func application(id, applicant string) model.Application {
	return model.Application{ID: id, ApplicantID: applicant, Message: "hi", SubmittedAt: t0}
}

func postIDs(posts []model.TeamPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store wrapped with instrumentation", t, func() {
		ctx := context.Background()
		store := repository.Instrumented(repository.NewMemoryStore())

		Convey("When posts are created out of order", func() {
			So(store.Create(ctx, newPost("p1", "e1", t0, 3)), ShouldBeNil)
			So(store.Create(ctx, newPost("p3", "e1", t0.Add(2*time.Hour), 3)), ShouldBeNil)
			So(store.Create(ctx, newPost("p2", "e1", t0.Add(time.Hour), 3)), ShouldBeNil)
			So(store.Create(ctx, newPost("q1", "e2", t0.Add(30*time.Minute), 3)), ShouldBeNil)

			Convey("Then ListByEvent returns newest first", func() {
				posts, err := store.ListByEvent(ctx, "e1")
				So(err, ShouldBeNil)
				So(postIDs(posts), ShouldResemble, []string{"p3", "p2", "p1"})
			})

			Convey("Then List returns every post newest first", func() {
				posts, err := store.List(ctx)
				So(err, ShouldBeNil)
				So(postIDs(posts), ShouldResemble, []string{"p3", "p2", "q1", "p1"})
				So(store.Count(ctx), ShouldEqual, 4)
			})

			Convey("Then an unknown event yields an empty list", func() {
				posts, err := store.ListByEvent(ctx, "nope")
				So(err, ShouldBeNil)
				So(posts, ShouldNotBeNil)
				So(posts, ShouldBeEmpty)
			})

			Convey("Then a duplicate id is rejected", func() {
				So(store.Create(ctx, newPost("p1", "e1", t0, 3)), ShouldEqual, repository.ErrDuplicateID)
			})
		})

		Convey("When posts share a creation instant", func() {
			for _, id := range []string{"t1", "t2", "t3"} {
				So(store.Create(ctx, newPost(id, "e1", t0, 3)), ShouldBeNil)
			}

			Convey("Then the latest insert lists first", func() {
				posts, err := store.ListByEvent(ctx, "e1")
				So(err, ShouldBeNil)
				So(postIDs(posts), ShouldResemble, []string{"t3", "t2", "t1"})
			})
		})

		Convey("When getting a missing post", func() {
			_, err := store.GetByID(ctx, "missing")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When a returned post is mutated", func() {
			So(store.Create(ctx, newPost("p1", "e1", t0, 3)), ShouldBeNil)
			got, _ := store.GetByID(ctx, "p1")
			got.Applicants = append(got.Applicants, application("x", "u9"))

			Convey("Then the stored copy is unchanged", func() {
				again, _ := store.GetByID(ctx, "p1")
				So(again.Applicants, ShouldBeEmpty)
			})
		})

		Convey("When applications fill a team of three", func() {
			So(store.Create(ctx, newPost("p1", "e1", t0, 3)), ShouldBeNil)
			now := t0.Add(time.Hour)

			first, err := store.AddApplication(ctx, "p1", application("a1", "u1"), now)
			So(err, ShouldBeNil)
			So(first.Applicants, ShouldHaveLength, 1)
			So(first.Applicants[0].PostID, ShouldEqual, "p1")

			_, err = store.AddApplication(ctx, "p1", application("a2", "u1"), now)
			So(err, ShouldEqual, model.ErrAlreadyApplied)

			second, err := store.AddApplication(ctx, "p1", application("a3", "u2"), now)
			So(err, ShouldBeNil)
			So(second.IsFull(), ShouldBeTrue)

			Convey("Then a third applicant is rejected as full", func() {
				_, err := store.AddApplication(ctx, "p1", application("a4", "u3"), now)
				So(err, ShouldEqual, model.ErrPostFull)
			})
		})

		Convey("When applying to an expired or own post", func() {
			So(store.Create(ctx, newPost("p1", "e1", t0, 3)), ShouldBeNil)

			_, err := store.AddApplication(ctx, "p1", application("a1", "u1"), t0.Add(24*time.Hour))
			So(err, ShouldEqual, model.ErrPostExpired)

			_, err = store.AddApplication(ctx, "p1", application("a2", "author-p1"), t0)
			So(err, ShouldEqual, model.ErrSelfApply)

			_, err = store.AddApplication(ctx, "ghost", application("a3", "u1"), t0)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When many users apply concurrently", func() {
			So(store.Create(ctx, newPost("p1", "e1", t0, 5)), ShouldBeNil)

			var wg sync.WaitGroup
			var mu sync.Mutex
			accepted := 0
			for i := range 20 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := fmt.Sprintf("u%d", i)
					if _, err := store.AddApplication(ctx, "p1", application("a-"+id, id), t0); err == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			Convey("Then capacity is never exceeded", func() {
				So(accepted, ShouldEqual, 4)
				p, _ := store.GetByID(ctx, "p1")
				So(p.CurrentTeamSize(), ShouldEqual, 5)
			})
		})

		Convey("When purging expired posts", func() {
			So(store.Create(ctx, newPost("old", "e1", t0.Add(-48*time.Hour), 3)), ShouldBeNil)
			So(store.Create(ctx, newPost("new", "e1", t0, 3)), ShouldBeNil)

			n, err := store.PurgeExpired(ctx, t0)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			posts, _ := store.List(ctx)
			So(postIDs(posts), ShouldResemble, []string{"new"})
			_, err = store.GetByID(ctx, "old")
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestMemoryStoreSeed(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		store := repository.NewMemoryStore(repository.WithSeed(
			newPost("a", "e1", t0, 2),
			newPost("b", "e1", t0.Add(time.Minute), 2),
		))

		posts, err := store.ListByEvent(context.Background(), "e1")
		So(err, ShouldBeNil)
		So(postIDs(posts), ShouldResemble, []string{"b", "a"})
	})
}
