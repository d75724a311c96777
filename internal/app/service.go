// Package service orchestrates team posts, applications and their side
// effects, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/beacon/internal/adapters/catalog"
	"github.com/campuslink/beacon/internal/adapters/http/stream"
	eventqueue "github.com/campuslink/beacon/internal/adapters/mq/queue"
	workerpool "github.com/campuslink/beacon/internal/adapters/mq/worker"
	"github.com/campuslink/beacon/internal/adapters/pods"
	"github.com/campuslink/beacon/internal/adapters/repository"
	"github.com/campuslink/beacon/internal/adapters/tracking"
	"github.com/campuslink/beacon/internal/domain/dedupe"
	"github.com/campuslink/beacon/internal/domain/filter"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
	"github.com/campuslink/beacon/pkg/logger"
	"github.com/campuslink/beacon/pkg/metrics"
)

const defaultOrganizer = "Moderator"

// Broadcaster pushes a message to every live subscriber of room.
type Broadcaster interface {
	BroadcastToRoom(room string, message any)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(string, any) {}

// Service owns the post store, the event catalog, the applied index and the
// promotion pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	catalog     catalog.Catalog
	tracker     tracking.Tracker
	deduper     dedupe.Deduper
	eventQueue  eventqueue.Queue
	notifier    pods.Notifier
	trigger     PromotionTrigger
	workerPool  *workerpool.Pool
	broadcaster Broadcaster

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	threshold     int
	sweepInterval time.Duration
	retention     time.Duration
	now           func() time.Time
	newID         func() string

	// State
	started  bool
	cancelBg context.CancelFunc
	bgDone   sync.WaitGroup

	// Keyed submissions currently being applied; closed when settled.
	flightMu sync.Mutex
	inflight map[string]chan struct{}

	logger logger.Logger
}

// New constructs a Service. Unset collaborators default to in-memory ones.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    100_000,
		threshold:     1,
		sweepInterval: time.Minute,
		retention:     7 * 24 * time.Hour,
		now:           time.Now,
		newID:         uuid.NewString,
		broadcaster:   noopBroadcaster{},
		inflight:      make(map[string]chan struct{}),
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.catalog == nil {
		s.catalog = catalog.NewMemoryCatalog()
	}
	if s.tracker == nil {
		s.tracker = tracking.NewMemoryTracker()
	}
	if s.notifier == nil {
		s.notifier = pods.NewLogNotifier(nil)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.trigger = &queueTrigger{queue: s.eventQueue, threshold: s.threshold, logger: s.logger}
	return s
}

// Start launches the dispatch workers and the expiry sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting beacon service...")

	// Background work outlives the request context; Stop cancels it.
	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelBg = cancel

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.notifier)
	s.workerPool.Start(bgCtx)

	if s.retention > 0 {
		s.bgDone.Add(1)
		go func() {
			defer s.bgDone.Done()
			s.runSweeper(bgCtx)
		}()
	}

	metrics.UpdatePostsTotal(s.store.Count(ctx))
	s.started = true
	s.logger.Info(ctx, "beacon service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("promotionThreshold", s.threshold),
	)
	return nil
}

// Stop drains the promotion queue, bounded by ctx, and stops background work.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.logger.Info(ctx, "stopping beacon service...")

	var err error
	if s.workerPool != nil {
		err = s.workerPool.Shutdown(ctx)
	}
	s.cancelBg()
	s.bgDone.Wait()

	s.started = false
	s.logger.Info(ctx, "beacon service stopped")
	return err
}

// CreatePost builds a post for the author from req and stores it.
func (s *Service) CreatePost(ctx context.Context, author model.UserSummary, req types.CreatePostRequest) (types.PostView, error) {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return types.PostView{}, model.NewValidationError("eventId", "must not be empty")
	}
	if strings.TrimSpace(req.Description) == "" {
		return types.PostView{}, model.NewValidationError("description", "must not be empty")
	}
	event, err := s.catalog.Get(ctx, eventID)
	if errors.Is(err, catalog.ErrNotFound) {
		return types.PostView{}, model.NewValidationError("eventId", "unknown event")
	}
	if err != nil {
		return types.PostView{}, fmt.Errorf("failed to resolve event %s: %w", eventID, err)
	}

	now := s.now()
	post, err := model.NewTeamPost(model.NewPostParams{
		ID:          s.newID(),
		Event:       event,
		Author:      author,
		Description: req.Description,
		ExtraSkills: req.ExtraSkills,
		Now:         now,
	})
	if err != nil {
		return types.PostView{}, err
	}
	if err := s.store.Create(ctx, post); err != nil {
		return types.PostView{}, fmt.Errorf("failed to store post: %w", err)
	}

	metrics.RecordPostCreated()
	metrics.UpdatePostsTotal(s.store.Count(ctx))
	s.logger.Info(ctx, "team post created",
		logger.String("post_id", post.ID),
		logger.String("event_id", post.EventID),
		logger.String("author_id", post.AuthorID))

	view := types.NewPostView(post, now)
	s.broadcaster.BroadcastToRoom(stream.RoomForEvent(post.EventID),
		types.StreamMessage{Type: types.StreamPostCreated, Payload: view})
	return view, nil
}

// Apply adds the user's application to postID. A non-empty idempotencyKey
// already committed for the same user and post returns the current post
// without applying again; a duplicate arriving while the first attempt is in
// flight waits for that attempt and then either replays or retries.
func (s *Service) Apply(ctx context.Context, user model.UserSummary, postID string, req types.ApplicationRequest, idempotencyKey string) (types.PostView, error) {
	now := s.now()
	app, err := model.NewApplication(s.newID(), postID, user.ID, req.Message, req.ApplicantSkills, now)
	if err != nil {
		metrics.RecordApplicationRejected("invalid")
		return types.PostView{}, err
	}

	var settle func(committed bool)
	if idempotencyKey != "" {
		key := user.ID + ":" + postID + ":" + idempotencyKey
		replay, release, err := s.claimKey(ctx, key)
		if err != nil {
			return types.PostView{}, err
		}
		if replay {
			metrics.RecordApplicationReplayed()
			post, err := s.store.GetByID(ctx, postID)
			if err != nil {
				return types.PostView{}, err
			}
			return types.NewPostView(post, now), nil
		}
		settle = release
	}

	post, err := s.store.AddApplication(ctx, postID, app, now)
	if settle != nil {
		settle(err == nil)
	}
	if err != nil {
		metrics.RecordApplicationRejected(rejectReason(err))
		return types.PostView{}, err
	}

	if err := s.tracker.Record(ctx, user.ID, post.ID); err != nil {
		s.logger.Error(ctx, "failed to record applied post",
			logger.String("user_id", user.ID),
			logger.String("post_id", post.ID),
			logger.Error(err))
	}
	s.trigger.OnApplicantAdded(ctx, post, user.ID)
	metrics.RecordApplicationAccepted()
	s.logger.Info(ctx, "application accepted",
		logger.String("post_id", post.ID),
		logger.String("applicant_id", user.ID),
		logger.Int("applicants", len(post.Applicants)))

	view := types.NewPostView(post, now)
	s.broadcaster.BroadcastToRoom(stream.RoomForEvent(post.EventID),
		types.StreamMessage{Type: types.StreamApplicantAdded, Payload: view})
	return view, nil
}

// claimKey reports whether key belongs to an already committed submission.
// Otherwise it marks key in flight and returns release, which must be called
// once the attempt settles; only a committed attempt makes later calls
// replay. A caller arriving while key is in flight waits for it to settle.
func (s *Service) claimKey(ctx context.Context, key string) (replay bool, release func(committed bool), err error) {
	for {
		s.flightMu.Lock()
		pending, busy := s.inflight[key]
		if !busy {
			break
		}
		s.flightMu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
	}
	defer s.flightMu.Unlock()

	if s.deduper.Seen(ctx, key) {
		return true, nil, nil
	}
	done := make(chan struct{})
	s.inflight[key] = done
	return false, func(committed bool) {
		s.flightMu.Lock()
		defer s.flightMu.Unlock()
		if committed {
			s.deduper.SeenAndRecord(ctx, key)
		}
		delete(s.inflight, key)
		close(done)
	}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrPostFull):
		return "full"
	case errors.Is(err, model.ErrPostExpired):
		return "expired"
	case errors.Is(err, model.ErrAlreadyApplied):
		return "duplicate"
	case errors.Is(err, model.ErrSelfApply):
		return "self"
	default:
		return "error"
	}
}

// ListByEvent returns the event's posts, newest first.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]types.PostView, error) {
	posts, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return types.NewPostViews(posts, s.now()), nil
}

// Browse lists all posts narrowed by filterName and query for user.
func (s *Service) Browse(ctx context.Context, user model.UserSummary, filterName, query string) ([]types.PostView, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	criteria := filter.Criteria{
		Filter:        filterName,
		Query:         query,
		CurrentUserID: user.ID,
		Now:           s.now(),
	}
	if filterName == filter.Applied && user.ID != "" {
		applied, err := s.tracker.Applied(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load applied posts: %w", err)
		}
		criteria.Applied = applied
	}
	return types.NewPostViews(filter.Apply(posts, criteria), criteria.Now), nil
}

// GetPost returns one post.
func (s *Service) GetPost(ctx context.Context, postID string) (types.PostView, error) {
	post, err := s.store.GetByID(ctx, postID)
	if err != nil {
		return types.PostView{}, err
	}
	return types.NewPostView(post, s.now()), nil
}

// ListEvents returns catalog events, optionally of one category.
func (s *Service) ListEvents(ctx context.Context, category string) ([]model.Event, error) {
	if category != "" && !model.IsCategory(category) {
		return nil, model.NewValidationError("category", "unknown category")
	}
	return s.catalog.List(ctx, category)
}

// CreateEvent adds an event to the catalog on behalf of user.
func (s *Service) CreateEvent(ctx context.Context, user model.UserSummary, req types.CreateEventRequest) (model.Event, error) {
	organizer := strings.TrimSpace(user.Name)
	if organizer == "" {
		organizer = defaultOrganizer
	}
	event := model.Event{
		ID:           s.newID(),
		Title:        strings.TrimSpace(req.Title),
		Category:     req.Category,
		Date:         strings.TrimSpace(req.Date),
		Description:  strings.TrimSpace(req.Description),
		Skills:       model.NormalizeSkills(req.Skills),
		MaxTeamSize:  req.MaxTeamSize,
		ExternalLink: strings.TrimSpace(req.ExternalLink),
		Organizer:    organizer,
		CreatedAt:    s.now(),
	}
	if err := event.Validate(); err != nil {
		return model.Event{}, err
	}
	if err := s.catalog.Create(ctx, event); err != nil {
		return model.Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	metrics.RecordEventCreated()
	s.logger.Info(ctx, "event created",
		logger.String("event_id", event.ID),
		logger.String("category", event.Category))
	return event, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	queueLen := s.eventQueue.Len(ctx)
	totalPosts := s.store.Count(ctx)
	stats := map[string]interface{}{
		"started":            s.started,
		"workerCount":        s.workerCount,
		"queueSize":          s.queueSize,
		"queueLength":        queueLen,
		"dedupeSize":         s.dedupeSize,
		"dedupeEntries":      s.deduper.Size(),
		"promotionThreshold": s.threshold,
		"totalPosts":         totalPosts,
	}
	if s.workerPool != nil {
		processed, failed := s.workerPool.Stats()
		stats["promotionsDelivered"] = processed
		stats["promotionsFailed"] = failed
	}

	metrics.UpdatePostsTotal(totalPosts)
	return stats
}
