// Package apperrors defines the error kinds the service layer reports to its
// callers. Kinds replace an exception hierarchy: handlers dispatch on the kind
// value to pick an HTTP status, and messages are safe to show to users.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalidState
	KindCapacityExceeded
	KindPermissionDenied
	KindValidation
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports a missing resource, e.g. NotFound("Mission", 42).
func NotFound(resource string, identifier interface{}) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with identifier '%v' not found", resource, identifier),
	}
}

func AlreadyExists(resource string, identifier interface{}) *Error {
	return &Error{
		Kind:    KindAlreadyExists,
		Message: fmt.Sprintf("%s with identifier '%v' already exists", resource, identifier),
	}
}

// InvalidState reports a transition requested from a non-pending engagement.
// The message must name the engagement's current state.
func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// CapacityExceeded is a specialization of InvalidState raised only when a
// mission already holds capacity_max approved volunteers. It is a distinct
// kind so callers can show a "mission is full" message.
func CapacityExceeded(message string) *Error {
	return &Error{Kind: KindCapacityExceeded, Message: message}
}

func PermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf extracts the kind from an error chain. Errors that did not originate
// in this package report KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
