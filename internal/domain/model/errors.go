package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for post and application rules.
var (
	ErrValidation     = errors.New("validation failed")
	ErrPostFull       = errors.New("team is full")
	ErrPostExpired    = errors.New("post has expired")
	ErrAlreadyApplied = errors.New("already applied to this post")
	ErrSelfApply      = errors.New("cannot apply to your own post")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
