package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/campuslink/beacon/internal/cli"
	"github.com/campuslink/beacon/internal/config"
	"github.com/campuslink/beacon/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(context.Background())
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		return 1
	}

	var (
		baseURL = flag.String("url", cfg.Client.BaseURL, "Base URL of the service")
		timeout = flag.Duration("timeout", cfg.Client.Timeout, "HTTP request timeout")
		token   = flag.String("token", os.Getenv("BEACON_TOKEN"), "Bearer token")
		user    = flag.String("user", "", "Mint a development token for this user id")
		name    = flag.String("name", "", "Display name used when minting a token")
		college = flag.String("college", "", "College used when minting a token")
		asJSON  = flag.Bool("json", false, "Print raw JSON")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cli.ShowHelp(os.Stdout)
		return 0
	}

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cli.Run(ctx, &cli.Config{
		BaseURL:  *baseURL,
		Timeout:  *timeout,
		Token:    *token,
		UserID:   *user,
		UserName: *name,
		College:  *college,
		Secret:   cfg.Auth.JWTSecret,
		JSON:     *asJSON,
		Verbose:  *verbose,
		Out:      os.Stdout,
	}, flag.Args())
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		if errors.Is(err, cli.ErrUsage) || errors.Is(err, cli.ErrUnknownCommand) {
			return 2
		}
		return 1
	}
	return 0
}
