package model

import "time"

// Role names stored in the users table and carried in the JWT "role"
// claim. Authorization middleware compares against these values.
const (
	RoleAdmin     = "ADMIN"
	RoleOrganizer = "ORGANIZER"
	RoleExhibitor = "EXHIBITOR"
	RoleAttendee  = "ATTENDEE"
)

// ValidRole reports whether the given string is one of the four known
// role names. Registration rejects anything else.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleExhibitor, RoleAttendee:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. The json
// tags are omitted because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (ADMIN, ORGANIZER, EXHIBITOR, ATTENDEE).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Principal is the authenticated actor attached to a request by the
// identity middleware. It is ephemeral per request and is all the
// booking layer knows about the caller.
type Principal struct {
	ID   uint64 // subject claim of the access token
	Role string // role claim of the access token
}

// IsStaff reports whether the principal carries a role that may act on
// reservations it does not own (cancellation on behalf of a user).
func (p Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleOrganizer
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry and
// revocation. The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
