package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("post not found")
	ErrDuplicateID = errors.New("post id already exists")
)
