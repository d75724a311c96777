package repository

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/metrics"
)

// Instrumented wraps a Store and records per-operation latency and
// failures. Rule rejections such as ErrPostFull are not counted as errors.
func Instrumented(next Store) Store {
	return &instrumentedStore{next: next}
}

type instrumentedStore struct {
	next Store
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) && !isRuleRejection(err) {
		metrics.RecordStoreError(op)
	}
}

func isRuleRejection(err error) bool {
	return errors.Is(err, model.ErrPostFull) ||
		errors.Is(err, model.ErrPostExpired) ||
		errors.Is(err, model.ErrAlreadyApplied) ||
		errors.Is(err, model.ErrSelfApply) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, ErrDuplicateID)
}

func (s *instrumentedStore) Create(ctx context.Context, post model.TeamPost) (err error) {
	defer func(start time.Time) { observe("create", start, err) }(time.Now())
	return s.next.Create(ctx, post)
}

func (s *instrumentedStore) ListByEvent(ctx context.Context, eventID string) (posts []model.TeamPost, err error) {
	defer func(start time.Time) { observe("list_by_event", start, err) }(time.Now())
	return s.next.ListByEvent(ctx, eventID)
}

func (s *instrumentedStore) List(ctx context.Context) (posts []model.TeamPost, err error) {
	defer func(start time.Time) { observe("list", start, err) }(time.Now())
	return s.next.List(ctx)
}

func (s *instrumentedStore) GetByID(ctx context.Context, id string) (post model.TeamPost, err error) {
	defer func(start time.Time) { observe("get", start, err) }(time.Now())
	return s.next.GetByID(ctx, id)
}

func (s *instrumentedStore) AddApplication(ctx context.Context, postID string, app model.Application, now time.Time) (post model.TeamPost, err error) {
	defer func(start time.Time) { observe("add_application", start, err) }(time.Now())
	return s.next.AddApplication(ctx, postID, app, now)
}

func (s *instrumentedStore) PurgeExpired(ctx context.Context, before time.Time) (n int, err error) {
	defer func(start time.Time) { observe("purge_expired", start, err) }(time.Now())
	return s.next.PurgeExpired(ctx, before)
}

func (s *instrumentedStore) Count(ctx context.Context) int {
	start := time.Now()
	n := s.next.Count(ctx)
	observe("count", start, nil)
	return n
}
