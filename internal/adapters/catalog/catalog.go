// Package catalog stores the campus events that team posts reference.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
)

// ErrNotFound is returned when an event id is unknown.
var ErrNotFound = errors.New("event not found")

// Catalog provides access to events.
type Catalog interface {
	// Get returns ErrNotFound if the event is absent.
	Get(ctx context.Context, id string) (model.Event, error)

	// List returns events newest first. A non-empty category keeps only
	// events of that category.
	List(ctx context.Context, category string) ([]model.Event, error)

	// Create stores a validated event.
	Create(ctx context.Context, event model.Event) error
}

// SeedEvents returns the sample events offered on a fresh install.
func SeedEvents(now time.Time) []model.Event {
	return []model.Event{
		{
			ID:           "1",
			Title:        "TechFest 2024 Hackathon",
			Category:     model.CategoryHackathon,
			Date:         "2024-03-15T09:00:00Z",
			Description:  "Build innovative solutions for real-world problems in 48 hours.",
			Skills:       []string{"React", "Node.js", "Python", "AI/ML"},
			MaxTeamSize:  4,
			ExternalLink: "https://techfest2024.com",
			Organizer:    "TechFest Committee",
			CreatedAt:    now,
		},
		{
			ID:          "2",
			Title:       "Innovation Summit 2024",
			Category:    model.CategoryCompetition,
			Date:        "2024-03-20T10:00:00Z",
			Description: "Showcase your innovative projects and compete for prizes.",
			Skills:      []string{"Innovation", "Presentation", "Product Design"},
			MaxTeamSize: 3,
			Organizer:   "Innovation Club",
			CreatedAt:   now.Add(-time.Second),
		},
		{
			ID:           "3",
			Title:        "Web Development Workshop",
			Category:     model.CategoryWorkshop,
			Date:         "2024-03-10T14:00:00Z",
			Description:  "Learn modern web development with React and TypeScript.",
			Skills:       []string{"React", "TypeScript", "Web Development"},
			MaxTeamSize:  2,
			ExternalLink: "https://webdev-workshop.com",
			Organizer:    "CS Department",
			CreatedAt:    now.Add(-2 * time.Second),
		},
	}
}
