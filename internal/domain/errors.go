package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Validation issue codes.
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeInvalidEnum  = "invalid_enum_value"
	CodeTooSmall     = "too_small"
	CodeInvalidValue = "invalid_value"
)

// Issue is one failing field in a validation error. Path is Field split on
// dots, the shape older clients of the API read.
type Issue struct {
	Field   string   `json:"field"`
	Path    []string `json:"path"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// NewIssue builds an Issue for a dotted field path.
func NewIssue(field, code, message string) Issue {
	path := []string{}
	if field != "" {
		path = strings.Split(field, ".")
	}
	return Issue{Field: field, Path: path, Code: code, Message: message}
}

// ErrValidation indicates the request failed schema validation. Issues lists
// every failing field.
type ErrValidation struct {
	Issues []Issue
}

func (e *ErrValidation) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("'%s': %s", is.Field, is.Message))
	}
	return "validation error on " + strings.Join(parts, "; ")
}

// ErrStorage indicates a failure in the persistence layer.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrRateLimited indicates the caller exceeded its request quota.
type ErrRateLimited struct {
	Key string
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", e.Key)
}

// ErrConflict indicates the request clashes with an earlier one, such as an
// Idempotency-Key reused for a different body.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
