package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is the root of all user-input failures. Handlers map it
	// to a 400 with field details; nothing is written when it fires.
	ErrValidation = errors.New("validation")
	// ErrSelfConversation rejects a conversation between a user and themself.
	ErrSelfConversation = errors.New("self_conversation")
	// ErrUserNotFound is returned when a referenced user profile is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailNotVerified gates API access for accounts that have not
	// confirmed their email address.
	ErrEmailNotVerified = errors.New("email_not_verified")
)

// ValidationError carries per-field messages for invalid input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError from a field -> message map.
func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
