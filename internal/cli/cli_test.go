package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/campuslink/beacon/internal/adapters/catalog"
	"github.com/campuslink/beacon/internal/adapters/http/api"
	"github.com/campuslink/beacon/internal/adapters/http/auth"
	service "github.com/campuslink/beacon/internal/app"
	"github.com/campuslink/beacon/internal/cli"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
)

const secret = "cli-test-secret"

func newServer() *httptest.Server {
	svc := service.New(service.WithCatalog(catalog.NewMemoryCatalog(catalog.SeedEvents(time.Now())...)))
	mux := http.NewServeMux()
	api.NewServer(svc, auth.NewAuthenticator(secret)).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func newConfig(url, user string, out *bytes.Buffer) *cli.Config {
	return &cli.Config{
		BaseURL: url,
		Timeout: 5 * time.Second,
		UserID:  user,
		Secret:  secret,
		JSON:    true,
		Out:     out,
	}
}

func decodePost(out *bytes.Buffer) types.PostView {
	var post types.PostView
	So(json.Unmarshal(out.Bytes(), &post), ShouldBeNil)
	out.Reset()
	return post
}

func TestRunDispatch(t *testing.T) {
	Convey("Given a CLI config", t, func() {
		var out bytes.Buffer
		cfg := newConfig("http://127.0.0.1:1", "", &out)
		ctx := context.Background()

		Convey("When no command is given", func() {
			err := cli.Run(ctx, cfg, nil)
			So(errors.Is(err, cli.ErrUsage), ShouldBeTrue)
			So(out.String(), ShouldContainSubstring, "Commands:")
		})

		Convey("When the command is unknown", func() {
			err := cli.Run(ctx, cfg, []string{"dance"})
			So(errors.Is(err, cli.ErrUnknownCommand), ShouldBeTrue)
		})

		Convey("When a required flag is missing", func() {
			err := cli.Run(ctx, cfg, []string{"create-post", "-event", "1"})
			So(errors.Is(err, cli.ErrUsage), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "-description")
		})

		Convey("When a token is requested for a user", func() {
			cfg.UserID = "u1"
			So(cli.Run(ctx, cfg, []string{"token"}), ShouldBeNil)

			user, err := auth.Parse(secret, strings.TrimSpace(out.String()))
			So(err, ShouldBeNil)
			So(user.ID, ShouldEqual, "u1")
		})
	})
}

func TestPostCommands(t *testing.T) {
	Convey("Given a running beacon API", t, func() {
		srv := newServer()
		defer srv.Close()
		ctx := context.Background()
		var out bytes.Buffer

		author := newConfig(srv.URL, "alice", &out)
		author.UserName = "Alice"
		member := newConfig(srv.URL, "bob", &out)

		Convey("When events are listed by tab", func() {
			So(cli.Run(ctx, author, []string{"events", "-filter", "hackathons"}), ShouldBeNil)

			var events []model.Event
			So(json.Unmarshal(out.Bytes(), &events), ShouldBeNil)
			So(len(events), ShouldBeGreaterThan, 0)
			for _, e := range events {
				So(e.Category, ShouldEqual, model.CategoryHackathon)
			}
		})

		Convey("When a post is created", func() {
			So(cli.Run(ctx, author, []string{"create-post", "-event", "1", "-description", "need a designer", "-skill", "Figma"}), ShouldBeNil)
			post := decodePost(&out)
			So(post.AuthorID, ShouldEqual, "alice")
			So(post.RequiredSkills, ShouldContain, "Figma")

			Convey("Then another user can apply through a session", func() {
				err := cli.Run(ctx, member, []string{"apply", "-post", post.ID, "-message", "I design", "-skill", "Figma", "-skill", "Figma"})
				So(err, ShouldBeNil)
				updated := decodePost(&out)
				So(len(updated.Applicants), ShouldEqual, 1)
				So(updated.Applicants[0].ApplicantID, ShouldEqual, "bob")
				So(updated.Applicants[0].RelevantSkills, ShouldResemble, []string{"Figma"})

				Convey("And a second application is refused before submission", func() {
					err := cli.Run(ctx, member, []string{"apply", "-post", post.ID, "-message", "again"})
					So(errors.Is(err, model.ErrAlreadyApplied), ShouldBeTrue)
				})
			})

			Convey("Then the author cannot apply to it", func() {
				err := cli.Run(ctx, author, []string{"apply", "-post", post.ID, "-message", "me"})
				So(errors.Is(err, model.ErrSelfApply), ShouldBeTrue)
			})

			Convey("Then a blank message is rejected", func() {
				err := cli.Run(ctx, member, []string{"apply", "-post", post.ID, "-message", "  "})
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})

			Convey("Then it is listed for its event and found by search", func() {
				So(cli.Run(ctx, author, []string{"posts", "-event", "1"}), ShouldBeNil)
				var posts []types.PostView
				So(json.Unmarshal(out.Bytes(), &posts), ShouldBeNil)
				So(len(posts), ShouldEqual, 1)
				out.Reset()

				So(cli.Run(ctx, author, []string{"browse", "-filter", "my-posts", "-q", "designer"}), ShouldBeNil)
				So(json.Unmarshal(out.Bytes(), &posts), ShouldBeNil)
				So(len(posts), ShouldEqual, 1)
			})

			Convey("Then the table view shows the team size", func() {
				author.JSON = false
				So(cli.Run(ctx, author, []string{"get", "-post", post.ID}), ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "1/4")
				So(out.String(), ShouldContainSubstring, "hours remaining")
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a running beacon API", t, func() {
		srv := newServer()
		defer srv.Close()
		var out bytes.Buffer
		cfg := newConfig(srv.URL, "", &out)

		Convey("When more users apply than the teams can hold", func() {
			stats, err := cli.Load(context.Background(), cfg, cli.LoadConfig{
				EventID:    "3",
				Posts:      2,
				Applicants: 6,
				Workers:    3,
			})

			Convey("Then every team fills exactly and the rest are refused", func() {
				So(err, ShouldBeNil)
				So(stats.PostsCreated, ShouldEqual, 2)
				So(stats.ApplicationsOK, ShouldEqual, 2)
				So(stats.ApplicationsFull, ShouldEqual, 4)
				So(stats.ApplicationsFailed, ShouldEqual, 0)
			})
		})

		Convey("When the event does not exist", func() {
			_, err := cli.Load(context.Background(), cfg, cli.LoadConfig{EventID: "missing", Posts: 1})
			So(err, ShouldNotBeNil)
		})
	})
}
