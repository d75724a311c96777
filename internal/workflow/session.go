// Package workflow drives one user's application to a team post, from
// opening the form to the server's answer.
package workflow

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
)

// State of a Session.
type State int

// Session states. Succeeded returns straight to Idle and Failed to
// Composing, so neither is observable.
const (
	Idle State = iota
	Composing
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Submitter sends an application. *remote.Client implements it.
type Submitter interface {
	Apply(ctx context.Context, postID string, req types.ApplicationRequest, idempotencyKey string) (types.PostView, error)
}

// Session holds at most one application in progress, a cache of posts seen
// from the server and the set of posts the user applied to.
type Session struct {
	mu        sync.Mutex
	submitter Submitter
	userID    string
	now       func() time.Time
	newKey    func() string

	state   State
	postID  string
	message string
	skills  []string
	key     string

	posts   map[string]types.PostView
	applied map[string]struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyGenerator replaces the idempotency key generator.
func WithKeyGenerator(newKey func() string) Option {
	return func(s *Session) {
		if newKey != nil {
			s.newKey = newKey
		}
	}
}

// NewSession creates an idle session for userID.
func NewSession(submitter Submitter, userID string, opts ...Option) *Session {
	s := &Session{
		submitter: submitter,
		userID:    userID,
		now:       time.Now,
		newKey:    uuid.NewString,
		posts:     make(map[string]types.PostView),
		applied:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remember caches posts read from the server and marks those the user
// already applied to.
func (s *Session) Remember(posts ...types.PostView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range posts {
		s.store(p)
	}
}

func (s *Session) store(p types.PostView) { //nolint:gocritic // hugeParam: value copy is the cache entry
	s.posts[p.ID] = p
	if p.HasApplicant(s.userID) {
		s.applied[p.ID] = struct{}{}
	}
}

// Post returns the cached post.
func (s *Session) Post(id string) (types.PostView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

// HasApplied reports whether the user applied to postID in this session
// or according to a remembered post.
func (s *Session) HasApplied(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.applied[postID]
	return ok
}

// Applied returns the applied index as a set.
func (s *Session) Applied() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.applied))
	for id := range s.applied {
		out[id] = struct{}{}
	}
	return out
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin opens an application to post. Full, expired, own and already
// applied posts are refused.
func (s *Session) Begin(post types.PostView) error { //nolint:gocritic // hugeParam: value semantics
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return ErrBusy
	}
	if err := post.CanAccept(s.userID, s.now()); err != nil {
		return err
	}
	if _, ok := s.applied[post.ID]; ok {
		return model.ErrAlreadyApplied
	}

	s.store(post)
	s.state = Composing
	s.postID = post.ID
	s.message = ""
	s.skills = nil
	s.key = s.newKey()
	return nil
}

// SetMessage replaces the draft message.
func (s *Session) SetMessage(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.message = message
	return nil
}

// AddSkill appends a trimmed skill. Blank and duplicate skills are ignored.
func (s *Session) AddSkill(skill string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil
	}
	for _, have := range s.skills {
		if have == skill {
			return nil
		}
	}
	s.skills = append(s.skills, skill)
	return nil
}

// RemoveSkill drops skill from the draft.
func (s *Session) RemoveSkill(skill string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	for i, have := range s.skills {
		if have == skill {
			s.skills = append(s.skills[:i], s.skills[i+1:]...)
			break
		}
	}
	return nil
}

// Draft returns the message and skills being composed.
func (s *Session) Draft() (message string, skills []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message, append([]string(nil), s.skills...)
}

func (s *Session) editable() error {
	switch s.state {
	case Composing:
		return nil
	case Submitting:
		return ErrBusy
	default:
		return ErrNoActiveApplication
	}
}

// Submit sends the draft. A blank message fails validation without any
// network call. On success the server's post replaces the cached one and
// the session returns to Idle; on failure it returns to Composing with the
// draft intact and the error is a *remote.NetworkError.
func (s *Session) Submit(ctx context.Context) (types.PostView, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return types.PostView{}, err
	}
	if strings.TrimSpace(s.message) == "" {
		s.mu.Unlock()
		return types.PostView{}, model.NewValidationError("message", "must not be empty")
	}
	postID, key := s.postID, s.key
	req := types.ApplicationRequest{
		Message:         strings.TrimSpace(s.message),
		ApplicantSkills: append([]string{}, s.skills...),
	}
	s.state = Submitting
	s.mu.Unlock()

	post, err := s.submitter.Apply(ctx, postID, req, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Composing
		var netErr *remote.NetworkError
		if !errors.As(err, &netErr) {
			err = &remote.NetworkError{Method: http.MethodPost, URL: "/api/beacon/" + postID + "/applications", Err: err}
		}
		return types.PostView{}, err
	}

	s.store(post)
	s.applied[post.ID] = struct{}{}
	s.state = Idle
	s.postID, s.message, s.skills, s.key = "", "", nil, ""
	return post, nil
}

// Cancel abandons the draft.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.state = Idle
	s.postID, s.message, s.skills, s.key = "", "", nil, ""
	return nil
}
