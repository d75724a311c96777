// Package tracking maintains the index of posts each user applied to.
package tracking

import (
	"context"
	"sync"
)

// Tracker records applications per user so the "applied" filter has data.
type Tracker interface {
	// Record marks postID as applied to by userID. Recording twice is a no-op.
	Record(ctx context.Context, userID, postID string) error

	// Applied returns the set of post ids userID applied to, never nil.
	Applied(ctx context.Context, userID string) (map[string]struct{}, error)
}

// MemoryTracker keeps the index in process memory.
type MemoryTracker struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{byUser: make(map[string]map[string]struct{})}
}

func (t *MemoryTracker) Record(_ context.Context, userID, postID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		t.byUser[userID] = set
	}
	set[postID] = struct{}{}
	return nil
}

func (t *MemoryTracker) Applied(_ context.Context, userID string) (map[string]struct{}, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.byUser[userID]
	out := make(map[string]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out, nil
}
