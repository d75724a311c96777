package cli

import "errors"

var (
	// ErrUnknownCommand is returned for an unrecognized subcommand.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when required flags or arguments are missing.
	ErrUsage = errors.New("usage error")
	// ErrVerification is returned when a load run leaves inconsistent posts.
	ErrVerification = errors.New("verification failed")
)
