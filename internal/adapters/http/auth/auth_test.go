package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/campuslink/beacon/internal/adapters/http/auth"
	"github.com/campuslink/beacon/internal/domain/model"
)

const secret = "test-secret"

func TestIssueAndParse(t *testing.T) {
	Convey("Given a user", t, func() {
		user := model.UserSummary{ID: "u1", Name: "Asha", College: "IIT", Year: "2nd Year", Badges: []string{"Mentor"}}

		Convey("When a token is issued and parsed", func() {
			token, err := auth.Issue(secret, user, time.Now(), time.Hour)
			So(err, ShouldBeNil)
			got, err := auth.Parse(secret, token)

			Convey("Then the same summary comes back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, user)
			})
		})

		Convey("When the token is signed with another secret", func() {
			token, _ := auth.Issue("other", user, time.Now(), time.Hour)
			_, err := auth.Parse(secret, token)
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("When the token has expired", func() {
			token, _ := auth.Issue(secret, user, time.Now().Add(-2*time.Hour), time.Hour)
			_, err := auth.Parse(secret, token)
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given an authenticator", t, func() {
		a := auth.NewAuthenticator(secret)
		var seen model.UserSummary
		var found bool
		next := func(w http.ResponseWriter, r *http.Request) {
			seen, found = auth.UserFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}
		deny := func(w http.ResponseWriter, err error) { w.WriteHeader(http.StatusUnauthorized) }
		token, _ := auth.Issue(secret, model.UserSummary{ID: "u1", Name: "Asha"}, time.Now(), time.Hour)

		Convey("When a required route gets no token", func() {
			rec := httptest.NewRecorder()
			a.Required(next, deny)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(found, ShouldBeFalse)
		})

		Convey("When a required route gets a valid token", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			a.Required(next, deny)(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(seen.ID, ShouldEqual, "u1")
		})

		Convey("When an optional route gets a bad token", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer garbage")
			a.Optional(next)(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(found, ShouldBeFalse)
		})
	})
}
