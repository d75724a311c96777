package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
)

// Common errors for client usage. Use errors.Is for checking.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal server error")
)

// NetworkError wraps every failed call: transport failures as well as
// non-2xx responses (then Err is an *HTTPError).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError describes a non-2xx response.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	URL        string
	Method     string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error %d %s from %s %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP error %d %s from %s %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL)
}

// Unwrap maps the response to the closest domain or client sentinel so
// callers can use errors.Is(err, model.ErrPostFull) and friends.
func (e *HTTPError) Unwrap() error {
	switch e.Code {
	case types.CodePostFull:
		return model.ErrPostFull
	case types.CodePostExpired:
		return model.ErrPostExpired
	case types.CodeAlreadyApplied:
		return model.ErrAlreadyApplied
	case types.CodeSelfApply:
		return model.ErrSelfApply
	}
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return model.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrInternalError
	}
	return nil
}

// IsHTTPError checks if an error is an HTTPError and optionally matches status code.
func IsHTTPError(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return status == 0 || httpErr.StatusCode == status
	}
	return false
}
