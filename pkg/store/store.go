// Package store defines the directory store used by the membership workflow.
//
// Every method is atomic on its own. Multi-step changes are coordinated by
// the caller with the conditional writes exposed here.
package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write matched no row
	// because the record changed since it was read.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned when a write would violate a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the directory of users, teams, and interactions.
type Store interface {
	UserStore
	TeamStore
	InteractionStore
}
