// Package service holds the project, task, session and user use cases.
package service

import (
	"errors"
	"strings"
)

// Service errors. Handlers map them to HTTP responses in one place.
var (
	ErrUnauthenticated    = errors.New("no authenticated identity")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("not authorized for this project")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError carries the field-level messages of a rejected input.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// validationError returns nil when msgs is empty.
func validationError(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}
