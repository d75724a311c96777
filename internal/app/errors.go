package service

import "errors"

// ErrNotStarted is returned by Stop on a service that was never started.
var ErrNotStarted = errors.New("service not started")
