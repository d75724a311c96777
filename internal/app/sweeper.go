package service

import (
	"context"
	"time"

	"github.com/campuslink/beacon/pkg/logger"
	"github.com/campuslink/beacon/pkg/metrics"
)

func (s *Service) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep purges posts that expired more than the retention period ago.
func (s *Service) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error(ctx, "failed to purge expired posts", logger.Error(err))
		return 0
	}
	if n > 0 {
		metrics.RecordPostsPurged(n)
		s.logger.Info(ctx, "purged expired posts", logger.Int("count", n))
	}
	metrics.UpdatePostsTotal(s.store.Count(ctx))
	return n
}
