package model

import "time"

// Reservation states. A booking is created directly in CONFIRMED when
// capacity allows (there is no approval gate on the slot path), so
// PENDING exists for completeness of the machine and for rows migrated
// from older flows. CANCELLED and REJECTED are terminal.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
	ReservationRejected  = "REJECTED"
)

// reservationTransitions is the legal transition table of the
// reservation state machine. Absence means the transition is illegal.
var reservationTransitions = map[string]map[string]bool{
	ReservationPending: {
		ReservationConfirmed: true,
		ReservationRejected:  true,
	},
	ReservationConfirmed: {
		ReservationCancelled: true,
	},
}

// CanTransitionReservation reports whether a reservation may move from
// one status to another.
func CanTransitionReservation(from, to string) bool {
	return reservationTransitions[from][to]
}

// ReservationTerminal reports whether the status admits no further
// transitions.
func ReservationTerminal(status string) bool {
	return status == ReservationCancelled || status == ReservationRejected
}

// ReservationActive reports whether the status counts as a live claim
// on the resource. A principal may hold at most one active reservation
// per resource.
func ReservationActive(status string) bool {
	return status == ReservationPending || status == ReservationConfirmed
}

// Reservation records a principal's claim against a booth or a session
// seat pool.
//
// Fields:
//  ID           – primary key identifier.
//  Reference    – opaque UUID returned to clients and carried in events.
//  ResourceType – BOOTH or SESSION.
//  ResourceID   – booth or session being claimed.
//  UserID       – principal who made the reservation.
//  Status       – state of the reservation (see constants above).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64       // reservations.id
	Reference    string       // reservations.reference
	ResourceType ResourceType // reservations.resource_type
	ResourceID   uint64       // reservations.resource_id
	UserID       uint64       // reservations.user_id
	Status       string       // reservations.status
	CreatedAt    time.Time    // reservations.created_at
	UpdatedAt    time.Time    // reservations.updated_at
}

// Ref returns the resource reference the reservation points at.
func (r *Reservation) Ref() ResourceRef {
	return ResourceRef{Type: r.ResourceType, ID: r.ResourceID}
}
