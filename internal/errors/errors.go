// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrConfirmationRequired = errors.New("destructive action requires confirmation")
	ErrDuplicateEntity      = errors.New("entity with this name already exists")
	ErrUnknownKind          = errors.New("unknown operation kind")
	ErrKindImmutable        = errors.New("operation kind cannot be changed")
)

// NotFoundError is returned when a record does not exist in the store.
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

// ValidationError reports rejected user input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NoTemplateConfiguredError means no active template matches the trigger on the entity.
type NoTemplateConfiguredError struct {
	EntityID int
	Trigger  string
}

func (e *NoTemplateConfiguredError) Error() string {
	return fmt.Sprintf("no active template configured for %q on entity %d", e.Trigger, e.EntityID)
}

// ClipboardError wraps a failed clipboard write.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return "clipboard write failed: " + e.Err.Error()
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// ImportAbortedError stops a CSV import before any write.
type ImportAbortedError struct {
	Reason string
}

func (e *ImportAbortedError) Error() string {
	return "import aborted: " + e.Reason
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
