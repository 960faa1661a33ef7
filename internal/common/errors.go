// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors.
var (
	// Authentication errors. Both end the local session.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrRateLimited    = errors.New("too many requests, please wait for some time")

	// Request errors.
	ErrNotFound         = errors.New("not found")
	ErrNetwork          = errors.New("network response was not ok")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StatusError ties one of the request errors above to the HTTP status that caused it.
type StatusError struct {
	Err        error
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError maps a failed HTTP status onto the error taxonomy.
// 401 and 429 end the session; every other status is a plain ErrNetwork.
// Callers that give 404 a meaning of its own check StatusCode themselves.
func NewStatusError(statusCode int) error {
	var err error
	switch statusCode {
	case http.StatusUnauthorized:
		err = ErrSessionExpired
	case http.StatusTooManyRequests:
		err = ErrRateLimited
	default:
		err = ErrNetwork
	}
	return &StatusError{Err: err, StatusCode: statusCode}
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// EndsSession reports whether err forced the local session to end.
func EndsSession(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrRateLimited)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
