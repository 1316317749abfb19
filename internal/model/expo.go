package model

import "time"

// Expo lifecycle states. An expo starts in DRAFT, becomes visible and
// bookable when PUBLISHED, and ends in COMPLETED. An expo whose end
// date has passed is treated as closed at read time without a stored
// transition.
const (
	ExpoDraft     = "DRAFT"
	ExpoPublished = "PUBLISHED"
	ExpoCompleted = "COMPLETED"
)

// Expo represents a row in the `expos` table. Booths and sessions hang
// off an expo and inherit their openness from its lifecycle state.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user who owns the expo.
//  Title       – display title.
//  Description – free-form description.
//  Venue       – venue name or address.
//  StartsAt    – when the expo opens its doors.
//  EndsAt      – when the expo ends (must be after StartsAt).
//  Status      – lifecycle state (DRAFT, PUBLISHED, COMPLETED).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Expo struct {
	ID          uint64    // expos.id
	OrganizerID uint64    // expos.organizer_id
	Title       string    // expos.title
	Description string    // expos.description
	Venue       string    // expos.venue
	StartsAt    time.Time // expos.starts_at
	EndsAt      time.Time // expos.ends_at
	Status      string    // expos.status
	CreatedAt   time.Time // expos.created_at
	UpdatedAt   time.Time // expos.updated_at
}

// CanPublish reports whether an expo in the given state may transition
// to PUBLISHED. Only DRAFT expos can be published.
func CanPublish(status string) bool { return status == ExpoDraft }

// CanUnpublish reports whether an expo in the given state may
// transition back to DRAFT. Only PUBLISHED expos can be unpublished;
// the repository additionally blocks the transition while confirmed
// reservations exist under the expo.
func CanUnpublish(status string) bool { return status == ExpoPublished }

// CanComplete reports whether an expo in the given state may be marked
// COMPLETED. COMPLETED is terminal.
func CanComplete(status string) bool { return status == ExpoPublished }

// ExpoOpen reports whether an expo accepts reservations at the given
// instant: it must be PUBLISHED and its end date must not have passed.
func ExpoOpen(status string, endsAt, now time.Time) bool {
	return status == ExpoPublished && now.Before(endsAt)
}
