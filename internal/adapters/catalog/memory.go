package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/campuslink/beacon/internal/domain/model"
)

// MemoryCatalog keeps events in a map guarded by a RWMutex.
type MemoryCatalog struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

// NewMemoryCatalog creates a catalog holding seed.
func NewMemoryCatalog(seed ...model.Event) *MemoryCatalog {
	c := &MemoryCatalog{events: make(map[string]model.Event, len(seed))}
	for _, e := range seed {
		c.events[e.ID] = cloneEvent(e)
	}
	return c
}

func (c *MemoryCatalog) Get(_ context.Context, id string) (model.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (c *MemoryCatalog) List(_ context.Context, category string) ([]model.Event, error) {
	c.mu.RLock()
	out := make([]model.Event, 0, len(c.events))
	for _, e := range c.events {
		if category == "" || e.Category == category {
			out = append(out, cloneEvent(e))
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryCatalog) Create(_ context.Context, event model.Event) error {
	if event.ID == "" {
		return fmt.Errorf("%w: empty event id", model.ErrValidation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[event.ID] = cloneEvent(event)
	return nil
}

func cloneEvent(e model.Event) model.Event {
	e.Skills = append([]string(nil), e.Skills...)
	if e.Skills == nil {
		e.Skills = []string{}
	}
	return e
}
