package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput reports a local validation failure. It never reaches the network.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIncompleteSubtasks rejects completing a task with open sub-tasks.
	ErrIncompleteSubtasks = errors.New("complete all sub-tasks first")

	// ErrNotFound reports an id that is not known locally or server-side.
	ErrNotFound = errors.New("not found")
)

func invalidInput(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, detail)
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError is a response whose status was not a success.
// Code is the HTTP status, or 0 when the envelope itself reported failure.
type RejectedError struct {
	Op      string
	Code    int
	Message string
}

func (e *RejectedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: server rejected (%d): %s", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s: server rejected: %s", e.Op, msg)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 rejection.
func (e *RejectedError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// IsLocal reports whether err was raised before any network call.
func IsLocal(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrIncompleteSubtasks)
}
