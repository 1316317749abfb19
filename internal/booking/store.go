package booking

import (
	"context"
	"time"

	"github.com/expohub/expo-reservation/internal/model"
)

// Store is the persistence contract the booking service runs on. The
// SQL implementation lives in the repository package; MemStore below
// mirrors its locking contract in memory.
//
// Book and CancelConfirmed are the two ledger mutations. Both must be
// atomic with respect to concurrent callers targeting the same
// resource: the capacity check and the counter write happen as one
// indivisible operation, serialized per resource. Operations on
// different resources must not block each other. The confirmed counter
// is a materialized view — it must always equal the number of
// CONFIRMED reservations for the resource.
type Store interface {
	// Resource returns the flattened view of a booth or session joined
	// with its parent expo, or ErrNotFound.
	Resource(ctx context.Context, ref model.ResourceRef) (*model.ResourceInfo, error)

	// ExpoResources returns all booths and sessions under the expo.
	// Used by availability listings and analytics rollups; read-only.
	ExpoResources(ctx context.Context, expoID uint64) ([]model.ResourceInfo, error)

	// Book atomically re-checks, inside the per-resource critical
	// section, that the parent is open at now, that the user holds no
	// active reservation on the resource, and that a slot remains; it
	// then increments the counter and inserts a CONFIRMED reservation
	// carrying the given reference. On ErrLifecycleClosed,
	// ErrAlreadyReserved or ErrCapacityExceeded no state changes.
	Book(ctx context.Context, ref model.ResourceRef, userID uint64, reference string, now time.Time) (*model.Reservation, error)

	// Reservation returns a reservation by id, or ErrNotFound.
	Reservation(ctx context.Context, id uint64) (*model.Reservation, error)

	// CancelConfirmed conditionally transitions CONFIRMED -> CANCELLED
	// and releases the slot in the same critical section. It returns
	// false (and no error) when the reservation is not currently
	// CONFIRMED, letting the service distinguish an idempotent repeat
	// from an illegal transition.
	CancelConfirmed(ctx context.Context, id uint64) (bool, error)
}
