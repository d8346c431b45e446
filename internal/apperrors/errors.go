// Package apperrors defines the error taxonomy shared by the repository and
// service layers. Every failure an operation can surface belongs to exactly one
// of five kinds, so callers (and bulk aggregators) can classify errors without
// string matching.
package apperrors

import (
	"errors"
	"fmt"
)

// Error kind identifiers, used when reporting per-item failures in bulk
// operation results.
const (
	KindValidation = "validation_error"
	KindNotFound   = "not_found"
	KindDuplicate  = "duplicate"
	KindConstraint = "constraint_violation"
	KindStore      = "store_error"
)

// ValidationError indicates malformed or out-of-range input. Recoverable by
// the caller by correcting the input; never logged as a server fault.
type ValidationError struct {
	Field  string // offending field name, empty when the whole payload is bad
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced group or mapping does not exist.
type NotFoundError struct {
	Entity string // "group" or "mapping"
	ID     int
	Reason string // optional detail, e.g. "mapping is already inactive"
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// DuplicateError indicates a group-name or (user, group) pair collision.
// Callers may treat it as a 409-equivalent condition.
type DuplicateError struct {
	Entity string
	Detail string
}

func (e *DuplicateError) Error() string { return e.Detail }

// ConstraintError indicates an operation blocked by dependent data, such as a
// non-forced group delete while mapping rows still reference the group. Count
// carries the number of blocking rows so the caller can decide to force.
type ConstraintError struct {
	Reason string
	Count  int
}

func (e *ConstraintError) Error() string { return e.Reason }

// StoreError indicates an underlying persistence failure. Fatal for the
// single operation; wrapped with context identifying the entity and id it hit.
type StoreError struct {
	Op     string // operation being attempted, e.g. "insert group"
	Entity string
	ID     int
	Err    error
}

func (e *StoreError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s failed for %s %d: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStore wraps a driver-level error with operation context.
func NewStore(op, entity string, id int, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsDuplicate reports whether err is (or wraps) a DuplicateError.
func IsDuplicate(err error) bool {
	var target *DuplicateError
	return errors.As(err, &target)
}

// IsConstraint reports whether err is (or wraps) a ConstraintError.
func IsConstraint(err error) bool {
	var target *ConstraintError
	return errors.As(err, &target)
}

// IsStore reports whether err is (or wraps) a StoreError.
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

// Kind classifies err into one of the taxonomy identifiers. Unrecognized
// errors are reported as store errors, the most conservative class.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return KindValidation
	case IsNotFound(err):
		return KindNotFound
	case IsDuplicate(err):
		return KindDuplicate
	case IsConstraint(err):
		return KindConstraint
	default:
		return KindStore
	}
}
