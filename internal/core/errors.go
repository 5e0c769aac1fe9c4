package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before it reaches storage.
	ErrValidation = errors.New("validation error")

	// ErrIntegrityViolation marks a failed cross-entity precondition.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrNotFound marks an update, delete or lookup whose target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBackendUnavailable marks a storage backend that is declared but not implemented.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

// Integrity rule names, used in errors and logs.
const (
	RuleActiveCardsOnClose  = "active-cards-on-close"
	RuleCardsExistOnDelete  = "cards-exist-on-delete"
	RuleExpiredOnReactivate = "expired-on-reactivate"
	RuleInactiveAccount     = "inactive-account-on-reactivate"
	RuleMissingReference    = "missing-reference"
)

// IntegrityError reports which rule refused a mutation and why.
type IntegrityError struct {
	Rule   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIntegrityViolation, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityViolation }

// NewIntegrityError builds an IntegrityError for the given rule.
func NewIntegrityError(rule, reason string) error {
	return &IntegrityError{Rule: rule, Reason: reason}
}

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Collection, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(collection, id string) error {
	return &NotFoundError{Collection: collection, ID: id}
}

// invalid wraps ErrValidation with a human readable message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
