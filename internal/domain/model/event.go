// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Event categories known to the events hub.
const (
	CategoryHackathon   = "Hackathon"
	CategoryCompetition = "Competition"
	CategoryWorkshop    = "Workshop"
	CategoryFest        = "Fest"
	CategoryOthers      = "Others"
)

// Categories lists the accepted event categories in display order.
var Categories = []string{CategoryHackathon, CategoryCompetition, CategoryWorkshop, CategoryFest, CategoryOthers} //nolint:gochecknoglobals // read-only lookup

// Event is a campus event that team posts are created for.
// Only ID, Title, Skills and MaxTeamSize matter to team formation.
type Event struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Category     string    `json:"category" bson:"category"`
	Date         string    `json:"date,omitempty" bson:"date,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Skills       []string  `json:"skills" bson:"skills"`
	MaxTeamSize  int       `json:"maxTeamSize" bson:"max_team_size"`
	ExternalLink string    `json:"externalLink,omitempty" bson:"external_link,omitempty"`
	Organizer    string    `json:"organizer,omitempty" bson:"organizer,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// Validate checks the fields required when a moderator publishes an event.
func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return NewValidationError("title", "must not be empty")
	case !IsCategory(e.Category):
		return NewValidationError("category", "unknown category "+e.Category)
	case strings.TrimSpace(e.Date) == "":
		return NewValidationError("date", "must not be empty")
	case strings.TrimSpace(e.Description) == "":
		return NewValidationError("description", "must not be empty")
	case e.MaxTeamSize < 1:
		return NewValidationError("maxTeamSize", "must be positive")
	}
	return nil
}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
