package model

import "time"

// ResourceType distinguishes the two reservable resource kinds. Booths
// are claimed by exhibitors, session seats by attendees. The two share
// the reservation state machine and the capacity ledger.
type ResourceType string

const (
	ResourceBooth   ResourceType = "BOOTH"
	ResourceSession ResourceType = "SESSION"
)

// ResourceRef identifies a single reservable resource. It is the key
// the capacity ledger scopes its locking to: operations on different
// refs never block each other.
type ResourceRef struct {
	Type ResourceType
	ID   uint64
}

// Booth represents a row in the `booths` table. A booth with capacity 1
// is exclusive; a shared booth carries capacity N.
//
// Fields:
//  ID             – primary key identifier.
//  ExpoID         – expo the booth belongs to.
//  Label          – human-readable booth label (e.g. "A-12").
//  Capacity       – number of exhibitor slots (>= 1).
//  ConfirmedCount – confirmed reservations, maintained by the ledger.
//  PriceTier      – pricing tier name (STANDARD, PREMIUM, ...).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booth struct {
	ID             uint64    // booths.id
	ExpoID         uint64    // booths.expo_id
	Label          string    // booths.label
	Capacity       uint32    // booths.capacity
	ConfirmedCount uint32    // booths.confirmed_count
	PriceTier      string    // booths.price_tier
	CreatedAt      time.Time // booths.created_at
	UpdatedAt      time.Time // booths.updated_at
}

// Session represents a row in the `sessions` table: a talk or workshop
// with a finite seat pool, scheduled within its parent expo's window.
//
// Fields:
//  ID             – primary key identifier.
//  ExpoID         – expo the session belongs to.
//  Title          – session title.
//  StartsAt       – session start time.
//  EndsAt         – session end time (registrations close here).
//  MaxAttendees   – seat pool size (>= 1).
//  ConfirmedCount – confirmed registrations, maintained by the ledger.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Session struct {
	ID             uint64    // sessions.id
	ExpoID         uint64    // sessions.expo_id
	Title          string    // sessions.title
	StartsAt       time.Time // sessions.starts_at
	EndsAt         time.Time // sessions.ends_at
	MaxAttendees   uint32    // sessions.max_attendees
	ConfirmedCount uint32    // sessions.confirmed_count
	CreatedAt      time.Time // sessions.created_at
	UpdatedAt      time.Time // sessions.updated_at
}

// ResourceInfo is the booking layer's flattened view of a booth or a
// session together with the parent lifecycle facts it needs to decide
// whether the resource is open. It is assembled by the store from the
// resource row joined with its expo.
type ResourceInfo struct {
	Ref            ResourceRef
	ExpoID         uint64
	Label          string // booth label or session title
	Capacity       uint32
	ConfirmedCount uint32
	ExpoStatus     string
	ClosesAt       time.Time // expo end, or session end when earlier
}

// Open reports whether the resource accepts reservations at the given
// instant: the parent expo must be PUBLISHED and the closing time must
// not have passed.
func (r ResourceInfo) Open(now time.Time) bool {
	return ExpoOpen(r.ExpoStatus, r.ClosesAt, now)
}

// Remaining returns the number of free slots. The counter is clamped
// so that a reconciliation lag can never report a negative value.
func (r ResourceInfo) Remaining() uint32 {
	if r.ConfirmedCount >= r.Capacity {
		return 0
	}
	return r.Capacity - r.ConfirmedCount
}
