// Package queue defines message payloads exchanged over the message broker.
package queue

// Reservation event kinds.
const (
	KindReservationConfirmed = "reservation.confirmed"
	KindReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published when a reservation is confirmed or
// cancelled. It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type ReservationEvent struct {
	Kind          string `json:"kind"`
	Reference     string `json:"reference"`
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	ResourceType  string `json:"resource_type"`
	ResourceID    uint64 `json:"resource_id"`
	ExpoID        uint64 `json:"expo_id"`
	OccurredAt    string `json:"occurred_at"`
}
