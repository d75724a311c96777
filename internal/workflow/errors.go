package workflow

import "errors"

// Sentinel kinds for session errors.
var (
	ErrBusy                = errors.New("another application is in progress")
	ErrNoActiveApplication = errors.New("no application in progress")
)
