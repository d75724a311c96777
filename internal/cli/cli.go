// Package cli implements the beacon command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/campuslink/beacon/internal/adapters/http/auth"
	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

type command func(ctx context.Context, cfg *Config, args []string) error

var commands = map[string]command{ //nolint:gochecknoglobals // static dispatch table
	"events":       runEvents,
	"create-event": runCreateEvent,
	"posts":        runPosts,
	"browse":       runBrowse,
	"get":          runGet,
	"create-post":  runCreatePost,
	"apply":        runApply,
	"token":        runToken,
	"load":         runLoad,
}

// Run executes the subcommand named by args[0].
func Run(ctx context.Context, cfg *Config, args []string) error {
	if len(args) == 0 {
		ShowHelp(cfg.out())
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	logger.Get().Debug(ctx, "running command", logger.String("command", args[0]))
	return cmd(ctx, cfg, args[1:])
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Beacon CLI
==========

Find teammates for campus events from the terminal.

Usage:
  beacon [global options] <command> [command options]

Global options:
  -url string       Base URL of the service (default from client.base_url)
  -timeout dur      HTTP request timeout (default from client.timeout)
  -token string     Bearer token
  -user string      Mint a development token for this user id
  -name string      Display name used when minting a token
  -college string   College used when minting a token
  -json             Print raw JSON
  -verbose          Enable debug logging

Commands:
  events        [-filter hackathons]                 List events
  create-event  -title T -category C -date D ...     Publish an event
  posts         -event ID                            List posts for an event
  browse        [-filter all|active|my-posts|applied] [-q text]
  get           -post ID                             Show one post
  create-post   -event ID -description D [-skill S]...
  apply         -post ID -message M [-skill S]...    Apply to join a team
  token                                              Print a development token
  load          -event ID [-posts N] [-applicants N] [-workers N]

Examples:
  beacon events -filter hackathons
  beacon -user u42 -name "Asha Rao" create-post -event 1 -description "Need a designer"
  beacon -user u7 apply -post <id> -message "I know Figma" -skill Figma
`)
}

// token returns the configured bearer token, minting one for UserID when
// no token was given.
func (c *Config) token(now time.Time) (string, error) {
	if c.Token != "" || c.UserID == "" {
		return c.Token, nil
	}
	return c.mint(model.UserSummary{ID: c.UserID, Name: c.UserName, College: c.College}, now)
}

func (c *Config) mint(user model.UserSummary, now time.Time) (string, error) {
	if c.Secret == "" {
		return "", fmt.Errorf("%w: minting a token needs auth.jwt_secret", ErrUsage)
	}
	ttl := c.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return auth.Issue(c.Secret, user, now, ttl)
}

func (c *Config) client(token string) *remote.Client {
	return remote.NewClient(c.BaseURL,
		remote.WithHTTPClient(remote.NewDefaultHTTPClient(c.Timeout)),
		remote.WithToken(token))
}

// authedClient builds a client carrying the configured credential.
func (c *Config) authedClient() (*remote.Client, error) {
	tok, err := c.token(time.Now())
	if err != nil {
		return nil, err
	}
	return c.client(tok), nil
}
