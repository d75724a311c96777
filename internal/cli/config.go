package cli

import (
	"io"
	"os"
	"time"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Token is sent as the bearer credential. When empty and UserID is
	// set, a development token is minted with Secret.
	Token    string
	UserID   string
	UserName string
	College  string
	Secret   string
	TokenTTL time.Duration

	// JSON prints raw API payloads instead of tables.
	JSON    bool
	Verbose bool

	Out io.Writer
}

// LoadConfig drives the "load" subcommand.
type LoadConfig struct {
	EventID    string
	Posts      int
	Applicants int
	Workers    int
}

// LoadStats summarizes a load run.
type LoadStats struct {
	PostsCreated       int
	PostsFailed        int
	ApplicationsSent   int
	ApplicationsOK     int
	ApplicationsFull   int
	ApplicationsFailed int
	Duration           time.Duration
}

func (c *Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}
