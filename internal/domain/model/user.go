package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxSnapshotBadges = 3

// Fallbacks used when the profile is incomplete.
const (
	defaultName    = "You"
	defaultCollege = "Your College"
	defaultYear    = "3rd Year"
)

var defaultBadges = []string{"Event Participant", "Team Player", "Collaborator"} //nolint:gochecknoglobals // copied, never mutated

// UserSummary is the normalized identity produced at the auth boundary.
type UserSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	College string   `json:"college,omitempty"`
	Year    string   `json:"year,omitempty"`
	Badges  []string `json:"badges,omitempty"`
}

// Author is the profile snapshot copied onto a post at creation time.
type Author struct {
	Name    string   `json:"name"`
	College string   `json:"college"`
	Avatar  string   `json:"avatar"`
	Badges  []string `json:"badges"`
	Year    string   `json:"year"`
}

// Snapshot derives the author snapshot. The returned value shares no
// memory with u, so later profile edits never reach stored posts.
func (u UserSummary) Snapshot() Author {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = defaultName
	}
	college := strings.TrimSpace(u.College)
	if college == "" {
		college = defaultCollege
	}
	year := strings.TrimSpace(u.Year)
	if year == "" {
		year = defaultYear
	}

	src := u.Badges
	if len(src) == 0 {
		src = defaultBadges
	}
	if len(src) > maxSnapshotBadges {
		src = src[:maxSnapshotBadges]
	}
	badges := make([]string, len(src))
	copy(badges, src)

	r, _ := utf8.DecodeRuneInString(name)
	return Author{
		Name:    name,
		College: college,
		Avatar:  string(unicode.ToUpper(r)),
		Badges:  badges,
		Year:    year,
	}
}
