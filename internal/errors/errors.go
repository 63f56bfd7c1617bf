// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// NotFoundError means the referenced entity does not exist for the tenant.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id int) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError means the request was malformed or missing required
// fields; rejected before any state change.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError means the operation would violate a state invariant, such
// as a duplicate enrollment or re-sending a non-draft broadcast.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func NewConflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a channel-provider failure. Caught per recipient;
// never aborts a batch.
type ProviderError struct {
	Channel string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Channel, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProvider(channel string, err error) error {
	return &ProviderError{Channel: channel, Err: err}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
