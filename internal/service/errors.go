// Package service holds the business rules: order and table lifecycles,
// total computation, catalog integrity, and sales rollups.
package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// InvalidTransitionError reports a status change that is not on the legal
// transition graph. The entity is left untouched.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

// ConflictError reports a compare-and-swap miss: another writer changed the
// entity between the caller's read and this write. Re-read and retry.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// ReferentialError reports an attempt to remove an entity that is still
// referenced elsewhere.
type ReferentialError struct {
	Entity string
	Reason string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// IsConflict reports whether err carries an InvalidTransitionError,
// ConflictError, or ReferentialError; handlers map these to 409.
func IsConflict(err error) bool {
	var it *InvalidTransitionError
	var c *ConflictError
	var r *ReferentialError
	return errors.As(err, &it) || errors.As(err, &c) || errors.As(err, &r)
}
