package api

import "errors"

// ErrBadRequest marks malformed request bodies.
var ErrBadRequest = errors.New("bad request")
