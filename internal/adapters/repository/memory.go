package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
)

// MemoryStore keeps posts in a slice ordered newest first, guarded by a
// RWMutex. It is the default store and the one used by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	posts []*model.TeamPost // createdAt descending
	byID  map[string]*model.TeamPost
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID: make(map[string]*model.TeamPost),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, post model.TeamPost) error {
	if post.ID == "" {
		return fmt.Errorf("%w: empty post id", model.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[post.ID]; exists {
		return ErrDuplicateID
	}
	s.insert(post.Clone())
	return nil
}

// insert places p before every post created at or before it, so among
// equal timestamps the latest insert lists first. Caller holds s.mu.
func (s *MemoryStore) insert(p model.TeamPost) {
	i := sort.Search(len(s.posts), func(i int) bool {
		return !s.posts[i].CreatedAt.After(p.CreatedAt)
	})
	s.posts = append(s.posts, nil)
	copy(s.posts[i+1:], s.posts[i:])
	s.posts[i] = &p
	s.byID[p.ID] = &p
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID string) ([]model.TeamPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TeamPost, 0)
	for _, p := range s.posts {
		if p.EventID == eventID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.TeamPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TeamPost, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (model.TeamPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return model.TeamPost{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) AddApplication(_ context.Context, postID string, app model.Application, now time.Time) (model.TeamPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[postID]
	if !ok {
		return model.TeamPost{}, ErrNotFound
	}
	if err := p.CanAccept(app.ApplicantID, now); err != nil {
		return model.TeamPost{}, err
	}
	app.PostID = postID
	app.RelevantSkills = model.NormalizeSkills(app.RelevantSkills)
	p.Applicants = append(p.Applicants, app)
	return p.Clone(), nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.posts[:0]
	removed := 0
	for _, p := range s.posts {
		if p.ExpiresAt.After(before) {
			kept = append(kept, p)
			continue
		}
		delete(s.byID, p.ID)
		removed++
	}
	for i := len(kept); i < len(s.posts); i++ {
		s.posts[i] = nil
	}
	s.posts = kept
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}
