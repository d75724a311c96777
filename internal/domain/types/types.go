// Package types contains read models shared by the HTTP API and its clients.
package types

import (
	"time"

	"github.com/campuslink/beacon/internal/domain/expiry"
	"github.com/campuslink/beacon/internal/domain/model"
)

// PostView is a team post plus the fields derived from it at a given instant.
type PostView struct {
	model.TeamPost
	CurrentTeamSize int              `json:"currentTeamSize"`
	Active          bool             `json:"active"`
	Full            bool             `json:"full"`
	Remaining       expiry.Remaining `json:"remaining"`
}

// NewPostView derives the view of p at now.
func NewPostView(p model.TeamPost, now time.Time) PostView {
	return PostView{
		TeamPost:        p,
		CurrentTeamSize: p.CurrentTeamSize(),
		Active:          p.IsActive(now),
		Full:            p.IsFull(),
		Remaining:       expiry.Evaluate(p.ExpiresAt, now),
	}
}

// NewPostViews maps NewPostView over posts, never returning nil.
func NewPostViews(posts []model.TeamPost, now time.Time) []PostView {
	out := make([]PostView, len(posts))
	for i, p := range posts {
		out[i] = NewPostView(p, now)
	}
	return out
}

// StreamMessage is pushed to live stream subscribers.
type StreamMessage struct {
	Type    string   `json:"type"`
	Payload PostView `json:"payload"`
}

// Stream message types.
const (
	StreamPostCreated    = "post_created"
	StreamApplicantAdded = "applicant_added"
)
