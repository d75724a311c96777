// Package filter narrows a list of team posts by tab and search query.
package filter

import (
	"strings"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
)

// Tab values accepted by Apply. Anything else behaves like All.
const (
	All     = "all"
	Active  = "active"
	MyPosts = "my-posts"
	Applied = "applied"
)

// Criteria selects posts for one viewer.
type Criteria struct {
	Filter        string
	Query         string
	CurrentUserID string
	// Applied holds the ids of posts the current user applied to.
	Applied map[string]struct{}
	Now     time.Time
}

// Apply keeps the posts matching both the tab and the query, preserving
// input order. It never mutates posts and always returns a non-nil slice.
func Apply(posts []model.TeamPost, c Criteria) []model.TeamPost {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]model.TeamPost, 0, len(posts))
	for _, p := range posts {
		if matchesTab(p, c) && matchesQuery(p, query) {
			out = append(out, p)
		}
	}
	return out
}

func matchesTab(p model.TeamPost, c Criteria) bool {
	switch c.Filter {
	case Active:
		return p.IsActive(c.Now)
	case MyPosts:
		return c.CurrentUserID != "" && p.AuthorID == c.CurrentUserID
	case Applied:
		_, ok := c.Applied[p.ID]
		return ok
	default:
		return true
	}
}

// matchesQuery expects query already lowered and trimmed.
func matchesQuery(p model.TeamPost, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.EventName), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, s := range p.RequiredSkills {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}
