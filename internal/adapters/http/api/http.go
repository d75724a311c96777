// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/campuslink/beacon/internal/adapters/catalog"
	"github.com/campuslink/beacon/internal/adapters/http/auth"
	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/adapters/repository"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
	"github.com/campuslink/beacon/pkg/logger"
)

const maxBodyBytes = 1 << 20

// PostService is the post and application side of the service.
type PostService interface {
	CreatePost(ctx context.Context, author model.UserSummary, req types.CreatePostRequest) (types.PostView, error)
	Apply(ctx context.Context, user model.UserSummary, postID string, req types.ApplicationRequest, idempotencyKey string) (types.PostView, error)
	ListByEvent(ctx context.Context, eventID string) ([]types.PostView, error)
	Browse(ctx context.Context, user model.UserSummary, filter, query string) ([]types.PostView, error)
	GetPost(ctx context.Context, postID string) (types.PostView, error)
}

// EventService is the event catalog side of the service.
type EventService interface {
	ListEvents(ctx context.Context, category string) ([]model.Event, error)
	CreateEvent(ctx context.Context, user model.UserSummary, req types.CreateEventRequest) (model.Event, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	PostService
	EventService
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	opsHandler    *OpsHandler
	postsHandler  *PostsHandler
	eventsHandler *EventsHandler
	streamHandler http.Handler
	auth          *auth.Authenticator
	logger        logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStreamHandler serves live post updates at /ws/events/{eventId}.
func WithStreamHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.streamHandler = h }
}

// WithLogger sets the access logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, authenticator *auth.Authenticator, opts ...ServerOption) *Server {
	s := &Server{
		opsHandler:    NewOpsHandler(deps),
		postsHandler:  NewPostsHandler(deps),
		eventsHandler: NewEventsHandler(deps),
		auth:          authenticator,
		logger:        logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	required := func(h http.HandlerFunc) http.HandlerFunc { return s.auth.Required(h, denyUnauthorized) }
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, AccessLog(s.logger, MetricsMiddleware(h, endpoint)))
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.opsHandler.HandleHealth, "healthz"))
	route("GET /stats", "stats", s.opsHandler.HandleStats)

	route("GET /api/posts/event/{eventId}", "posts_by_event", s.postsHandler.HandleListByEvent)
	route("POST /api/posts/team-finding", "create_post", required(s.postsHandler.HandleCreate))
	route("GET /api/beacon", "beacon", s.auth.Optional(s.postsHandler.HandleBrowse))
	route("GET /api/beacon/{postId}", "beacon_post", s.postsHandler.HandleGet)
	route("POST /api/beacon/{postId}/applications", "apply", required(s.postsHandler.HandleApply))

	route("GET /api/events", "events", s.eventsHandler.HandleList)
	route("POST /api/events", "create_event", required(s.eventsHandler.HandleCreate))

	if s.streamHandler != nil {
		mux.Handle("GET /ws/events/{eventId}", s.streamHandler)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeServiceError translates a service error to its HTTP response.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		// Internal details go to the access log, not the client.
		attachError(w, err)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

func denyUnauthorized(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnauthorized, types.CodeUnauthorized, err)
}

// statusFor maps domain errors onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, types.CodeInvalidRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, types.CodeNotFound
	case errors.Is(err, model.ErrPostFull):
		return http.StatusConflict, types.CodePostFull
	case errors.Is(err, model.ErrPostExpired):
		return http.StatusConflict, types.CodePostExpired
	case errors.Is(err, model.ErrAlreadyApplied):
		return http.StatusConflict, types.CodeAlreadyApplied
	case errors.Is(err, model.ErrSelfApply):
		return http.StatusConflict, types.CodeSelfApply
	case errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, types.CodeConflict
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, types.CodeUnauthorized
	default:
		return http.StatusInternalServerError, types.CodeInternal
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func currentUser(r *http.Request) model.UserSummary {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

// idempotencyKey reads the optional Idempotency-Key header.
func idempotencyKey(r *http.Request) string {
	return r.Header.Get(remote.IdempotencyHeader)
}
