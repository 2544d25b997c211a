package auth

import (
	"errors"
	"strings"
)

// ErrUserNotFound is returned when a token's claims no longer resolve to a
// live, active user and platform.
var ErrUserNotFound = errors.New("invalid token or user not found")

// FieldErrors is a field-tagged validation error, rendered at the boundary
// as a {"field": ["messages"]} body.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, messages := range e {
		parts = append(parts, field+": "+strings.Join(messages, "; "))
	}
	return strings.Join(parts, ", ")
}

func fieldError(field, message string) FieldErrors {
	return FieldErrors{field: {message}}
}
