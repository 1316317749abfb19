package model

import "time"

// Exhibitor application states. Applications are the organizer-approved
// workflow by which an exhibitor joins an expo. This is a separate,
// simpler machine than booth slot booking: an approval never touches
// the capacity ledger, and a booth booking never requires an approval.
// The two must not be conflated.
const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

var applicationTransitions = map[string]map[string]bool{
	ApplicationPending: {
		ApplicationApproved: true,
		ApplicationRejected: true,
	},
}

// CanTransitionApplication reports whether an application may move from
// one status to another. APPROVED and REJECTED are terminal.
func CanTransitionApplication(from, to string) bool {
	return applicationTransitions[from][to]
}

// Application represents a row in the `applications` table.
//
// Fields:
//  ID          – primary key identifier.
//  ExpoID      – expo the exhibitor applies to.
//  ExhibitorID – applying user.
//  Status      – PENDING, APPROVED or REJECTED.
//  Note        – free-form pitch from the exhibitor.
//  DecidedBy   – organizer or admin who decided (null while pending).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Application struct {
	ID          uint64    // applications.id
	ExpoID      uint64    // applications.expo_id
	ExhibitorID uint64    // applications.exhibitor_id
	Status      string    // applications.status
	Note        string    // applications.note
	DecidedBy   *uint64   // applications.decided_by (nullable)
	CreatedAt   time.Time // applications.created_at
	UpdatedAt   time.Time // applications.updated_at
}
