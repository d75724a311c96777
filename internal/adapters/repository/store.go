// Package repository persists team posts and their applications.
package repository

import (
	"context"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
)

// Store provides read/write access to team posts.
//
// Every implementation returns posts newest first (createdAt descending)
// and hands out copies, so callers may mutate results freely.
type Store interface {
	// Create persists a fully built post. Returns ErrDuplicateID if the id
	// is already taken.
	Create(ctx context.Context, post model.TeamPost) error

	// ListByEvent returns all posts for eventID, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]model.TeamPost, error)

	// List returns every post, newest first.
	List(ctx context.Context) ([]model.TeamPost, error)

	// GetByID returns ErrNotFound if the post is absent.
	GetByID(ctx context.Context, id string) (model.TeamPost, error)

	// AddApplication appends app to the post atomically, enforcing the
	// acceptance rules of model.TeamPost.CanAccept at now, and returns the
	// updated post.
	AddApplication(ctx context.Context, postID string, app model.Application, now time.Time) (model.TeamPost, error)

	// PurgeExpired deletes posts whose expiry is at or before before and
	// reports how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int, error)

	// Count returns the number of stored posts.
	Count(ctx context.Context) int
}
