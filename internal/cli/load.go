package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
	"github.com/campuslink/beacon/pkg/logger"
)

// runLoad creates posts for one event and fires concurrent applications at
// them from distinct synthetic users, then checks that no team overflowed.
func runLoad(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("load")
	lc := LoadConfig{}
	fs.StringVar(&lc.EventID, "event", "", "event id")
	fs.IntVar(&lc.Posts, "posts", 10, "number of posts to create")
	fs.IntVar(&lc.Applicants, "applicants", 50, "number of applications to submit")
	fs.IntVar(&lc.Workers, "workers", defaultWorkers, "concurrent requests")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "event"); err != nil {
		return err
	}
	if lc.Posts < 1 || lc.Applicants < 0 {
		return fmt.Errorf("%w: load needs -posts >= 1 and -applicants >= 0", ErrUsage)
	}

	stats, err := Load(ctx, cfg, lc)
	logStats(ctx, stats)
	return err
}

// Load runs a load session against cfg.BaseURL.
func Load(ctx context.Context, cfg *Config, lc LoadConfig) (LoadStats, error) {
	log := logger.Named("load")
	start := time.Now()
	var stats LoadStats
	if lc.Workers < 1 {
		lc.Workers = defaultWorkers
	}

	if err := cfg.client("").Do(ctx, "GET", "/healthz", nil, nil, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	posts, err := createLoadPosts(ctx, cfg, lc, &stats)
	if err != nil {
		return stats, err
	}
	log.Info(ctx, "posts created", logger.Int("posts", len(posts)))

	submitLoadApplications(ctx, cfg, lc, posts, &stats)
	stats.Duration = time.Since(start)

	if err := verifyLoad(ctx, cfg, posts, stats.ApplicationsOK); err != nil {
		return stats, err
	}
	log.Info(ctx, "load verified")
	return stats, nil
}

func createLoadPosts(ctx context.Context, cfg *Config, lc LoadConfig, stats *LoadStats) ([]string, error) {
	tok, err := cfg.mint(model.UserSummary{ID: loadAuthorID, Name: "Load Author"}, time.Now())
	if err != nil {
		return nil, err
	}
	author := cfg.client(tok)

	ids := make([]string, lc.Posts)
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lc.Workers)
	for i := range ids {
		g.Go(func() error {
			post, err := author.CreatePost(gctx, types.CreatePostRequest{
				EventID:     lc.EventID,
				Description: "load post " + strconv.Itoa(i),
			})
			if err != nil {
				failed.Add(1)
				logger.Get().Warn(gctx, "create post failed", logger.Int("index", i), logger.Error(err))
				return nil
			}
			ids[i] = post.ID
			return nil
		})
	}
	_ = g.Wait()

	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	stats.PostsCreated = len(out)
	stats.PostsFailed = int(failed.Load())
	if len(out) == 0 {
		return nil, errors.New("no posts could be created")
	}
	return out, nil
}

func submitLoadApplications(ctx context.Context, cfg *Config, lc LoadConfig, posts []string, stats *LoadStats) {
	var ok, full, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lc.Workers)
	for i := 0; i < lc.Applicants; i++ {
		g.Go(func() error {
			user := model.UserSummary{ID: "load-user-" + strconv.Itoa(i), Name: "Load User " + strconv.Itoa(i)}
			tok, err := cfg.mint(user, time.Now())
			if err != nil {
				failed.Add(1)
				return nil
			}
			postID := posts[i%len(posts)]
			_, err = cfg.client(tok).Apply(gctx, postID, types.ApplicationRequest{
				Message:         "load application",
				ApplicantSkills: []string{"Go"},
			}, uuid.NewString())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, model.ErrPostFull):
				full.Add(1)
			default:
				failed.Add(1)
				logger.Get().Debug(gctx, "application failed", logger.String("post_id", postID), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.ApplicationsSent = lc.Applicants
	stats.ApplicationsOK = int(ok.Load())
	stats.ApplicationsFull = int(full.Load())
	stats.ApplicationsFailed = int(failed.Load())
}

// verifyLoad re-reads every post: no team may exceed its maximum, no user
// may appear twice and the stored applicants must match the accepted count.
func verifyLoad(ctx context.Context, cfg *Config, posts []string, accepted int) error {
	c := cfg.client("")
	total := 0
	for _, id := range posts {
		post, err := c.GetPost(ctx, id)
		if err != nil {
			return fmt.Errorf("fetch post %s: %w", id, err)
		}
		if post.CurrentTeamSize > post.MaxTeamSize {
			return fmt.Errorf("%w: post %s has team size %d over %d", ErrVerification, id, post.CurrentTeamSize, post.MaxTeamSize)
		}
		seen := make(map[string]struct{}, len(post.Applicants))
		for _, a := range post.Applicants {
			if _, dup := seen[a.ApplicantID]; dup {
				return fmt.Errorf("%w: post %s lists %s twice", ErrVerification, id, a.ApplicantID)
			}
			seen[a.ApplicantID] = struct{}{}
		}
		total += len(post.Applicants)
	}
	if total != accepted {
		return fmt.Errorf("%w: %d applicants stored, %d accepted", ErrVerification, total, accepted)
	}
	return nil
}

func logStats(ctx context.Context, stats LoadStats) { //nolint:gocritic // hugeParam: logged once
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ApplicationsSent) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("postsCreated", stats.PostsCreated),
		logger.Int("postsFailed", stats.PostsFailed),
		logger.Int("applicationsSent", stats.ApplicationsSent),
		logger.Int("applicationsAccepted", stats.ApplicationsOK),
		logger.Int("applicationsFull", stats.ApplicationsFull),
		logger.Int("applicationsFailed", stats.ApplicationsFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("applicationsPerSecond", perSecond))
}
