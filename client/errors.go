package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAuthExpired is returned when the backend rejects the session token.
// The session has already been cleared when a caller sees it.
var ErrAuthExpired = errors.New("session expired, please sign in again")

// ValidationError lists required fields left empty. It is raised before any
// request is sent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "please fill in the required fields: " + strings.Join(e.Missing, ", ")
}

// NetworkError means the request never completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerRejection is a non-2xx response. FieldErrors holds per-field messages
// when the backend provided them (422).
type ServerRejection struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *ServerRejection) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// FieldError returns the first message for key, if any.
func (e *ServerRejection) FieldError(key string) (string, bool) {
	msgs := e.FieldErrors[key]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// Message picks the most useful human-readable text for err.
func Message(err error, fallback string) string {
	var rejection *ServerRejection
	var validation *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &rejection) && rejection.Message != "":
		return rejection.Message
	case errors.Is(err, ErrAuthExpired):
		return ErrAuthExpired.Error()
	default:
		return fallback
	}
}

// IsStatus reports whether err is a rejection with the given HTTP status.
func IsStatus(err error, status int) bool {
	var rejection *ServerRejection
	return errors.As(err, &rejection) && rejection.Status == status
}
