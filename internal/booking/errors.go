// Package booking implements the reservation state machine and the
// capacity ledger contract for booths and session seat pools. Stores
// provide the per-resource atomicity; this package decides which
// transitions are legal and who may perform them.
package booking

import "errors"

// Sentinel errors surfaced to handlers. Each maps to a single HTTP
// status; all of them are recoverable by the caller and none triggers
// an internal retry.
var (
	// ErrNotFound is returned for an unknown resource or reservation.
	ErrNotFound = errors.New("not found")

	// ErrLifecycleClosed is returned when the parent expo is not
	// published or the resource's time window has elapsed.
	ErrLifecycleClosed = errors.New("lifecycle closed")

	// ErrAlreadyReserved is returned when the principal already holds a
	// non-terminal reservation on the resource.
	ErrAlreadyReserved = errors.New("already reserved")

	// ErrCapacityExceeded is returned when no free slot remains at the
	// moment the ledger evaluates the booking. The loser of a race for
	// the last slot always receives this error, never a generic one.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidTransition is returned when a reservation is asked to
	// leave a terminal state (other than the idempotent repeat cancel).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotOwner is returned when a caller cancels a reservation it
	// does not own without holding a staff role.
	ErrNotOwner = errors.New("not owner")
)
