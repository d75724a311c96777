package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/campuslink/beacon/internal/adapters/http/auth"
	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
	"github.com/campuslink/beacon/internal/workflow"
	"github.com/campuslink/beacon/pkg/logger"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if strings.TrimSpace(fs.Lookup(name).Value.String()) == "" {
			return fmt.Errorf("%w: %s needs -%s", ErrUsage, fs.Name(), name)
		}
	}
	return nil
}

func runEvents(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("events")
	filter := fs.String("filter", "all", "events hub tab: all, hackathons, competitions, workshops, fests, others")
	if err := parse(fs, args); err != nil {
		return err
	}
	events, err := cfg.client("").ListEvents(ctx, *filter)
	if err != nil {
		return err
	}
	return printEvents(cfg, events)
}

func runCreateEvent(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("create-event")
	var skills stringList
	title := fs.String("title", "", "event title")
	category := fs.String("category", "", "Hackathon, Competition, Workshop, Fest or Others")
	date := fs.String("date", "", "event date")
	description := fs.String("description", "", "event description")
	maxTeam := fs.Int("max-team", 4, "maximum team size")
	link := fs.String("link", "", "external registration link")
	fs.Var(&skills, "skill", "skill (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "title", "category", "date"); err != nil {
		return err
	}

	c, err := cfg.authedClient()
	if err != nil {
		return err
	}
	event, err := c.CreateEvent(ctx, types.CreateEventRequest{
		Title:        *title,
		Category:     *category,
		Date:         *date,
		Description:  *description,
		Skills:       skills,
		MaxTeamSize:  *maxTeam,
		ExternalLink: *link,
	})
	if err != nil {
		return err
	}
	return printEvents(cfg, []model.Event{event})
}

func runPosts(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("posts")
	eventID := fs.String("event", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "event"); err != nil {
		return err
	}
	posts, err := cfg.client("").ListPostsByEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	return printPosts(cfg, posts)
}

func runBrowse(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("browse")
	filter := fs.String("filter", "all", "all, active, my-posts or applied")
	query := fs.String("q", "", "search text")
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := cfg.authedClient()
	if err != nil {
		return err
	}
	posts, err := c.Browse(ctx, *filter, *query)
	if err != nil {
		return err
	}
	return printPosts(cfg, posts)
}

func runGet(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("get")
	postID := fs.String("post", "", "post id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "post"); err != nil {
		return err
	}
	post, err := cfg.client("").GetPost(ctx, *postID)
	if err != nil {
		return err
	}
	return printPost(cfg, post)
}

func runCreatePost(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("create-post")
	var skills stringList
	eventID := fs.String("event", "", "event id")
	description := fs.String("description", "", "what the team is looking for")
	fs.Var(&skills, "skill", "extra required skill (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "event", "description"); err != nil {
		return err
	}

	c, err := cfg.authedClient()
	if err != nil {
		return err
	}
	post, err := c.CreatePost(ctx, types.CreatePostRequest{
		EventID:     *eventID,
		Description: *description,
		ExtraSkills: skills,
	})
	if err != nil {
		return err
	}
	return printPost(cfg, post)
}

// runApply drives one application through a workflow session: the post is
// fetched, checked locally, composed and submitted. A failed submission is
// retried up to -retries times with the same idempotency key.
func runApply(ctx context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("apply")
	var skills stringList
	postID := fs.String("post", "", "post id")
	message := fs.String("message", "", "why you want to join")
	retries := fs.Int("retries", 0, "resubmit this many times on failure")
	fs.Var(&skills, "skill", "relevant skill (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "post"); err != nil {
		return err
	}

	userID, err := cfg.identity()
	if err != nil {
		return err
	}
	c, err := cfg.authedClient()
	if err != nil {
		return err
	}
	post, err := c.GetPost(ctx, *postID)
	if err != nil {
		return err
	}

	session := workflow.NewSession(c, userID)
	session.Remember(post)
	if err := session.Begin(post); err != nil {
		return err
	}
	if err := session.SetMessage(*message); err != nil {
		return err
	}
	for _, s := range skills {
		if err := session.AddSkill(s); err != nil {
			return err
		}
	}

	var updated types.PostView
	for attempt := 0; ; attempt++ {
		updated, err = session.Submit(ctx)
		if err == nil || attempt >= *retries || !retryable(err) {
			break
		}
		logger.Get().Warn(ctx, "application failed, retrying",
			logger.String("post_id", *postID),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}
	if err != nil {
		_ = session.Cancel()
		return err
	}
	return printPost(cfg, updated)
}

// retryable reports whether resubmitting can help. Rule violations reported
// by the server and local validation failures are final.
func retryable(err error) bool {
	var httpErr *remote.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	var netErr *remote.NetworkError
	return errors.As(err, &netErr)
}

func runToken(_ context.Context, cfg *Config, args []string) error {
	fs := newFlagSet("token")
	if err := parse(fs, args); err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("%w: token needs -user", ErrUsage)
	}
	tok, err := cfg.token(time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cfg.out(), tok)
	return err
}

// identity resolves the acting user id from -user or from the token.
func (c *Config) identity() (string, error) {
	if c.UserID != "" {
		return c.UserID, nil
	}
	if c.Token == "" {
		return "", fmt.Errorf("%w: sign in with -token or -user", ErrUsage)
	}
	if c.Secret == "" {
		return "", nil
	}
	user, err := auth.Parse(c.Secret, c.Token)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
