package service

import (
	"context"

	"github.com/campuslink/beacon/internal/adapters/mq/queue"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
	"github.com/campuslink/beacon/pkg/metrics"
)

// PromotionTrigger is told about every applicant added to a post.
// Implementations must not block the caller.
type PromotionTrigger interface {
	OnApplicantAdded(ctx context.Context, post model.TeamPost, applicantID string)
}

// queueTrigger emits a PodEvent onto the promotion queue once a post has
// at least threshold applicants.
type queueTrigger struct {
	queue     queue.Queue
	threshold int
	logger    logger.Logger
}

func (t *queueTrigger) OnApplicantAdded(ctx context.Context, post model.TeamPost, applicantID string) { //nolint:gocritic // hugeParam: post is a snapshot
	if len(post.Applicants) < t.threshold {
		return
	}
	occurredAt := post.CreatedAt
	if n := len(post.Applicants); n > 0 {
		occurredAt = post.Applicants[n-1].SubmittedAt
	}
	event := model.PodEvent{
		PostID:         post.ID,
		EventID:        post.EventID,
		ApplicantID:    applicantID,
		ApplicantCount: len(post.Applicants),
		TeamSize:       post.CurrentTeamSize(),
		MaxTeamSize:    post.MaxTeamSize,
		OccurredAt:     occurredAt,
	}
	if !t.queue.Enqueue(context.WithoutCancel(ctx), event) {
		metrics.RecordPromotionDropped()
		t.logger.Warn(ctx, "promotion queue full, event dropped",
			logger.String("post_id", post.ID),
			logger.String("applicant_id", applicantID))
		return
	}
	metrics.RecordPromotionEmitted()
}
