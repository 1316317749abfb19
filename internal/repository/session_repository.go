package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SessionRepo encapsulates database operations for sessions. Like
// booths, the confirmed_count column is written only by the
// reservation path.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo given a DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// SessionRecord mirrors the schema of the sessions table. Timestamps
// are UTC RFC3339 strings at this boundary.
type SessionRecord struct {
	ID             uint64 `json:"id"`
	ExpoID         uint64 `json:"expo_id"`
	Title          string `json:"title"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	MaxAttendees   uint32 `json:"max_attendees"`
	ConfirmedCount uint32 `json:"confirmed_count"`
}

// Create inserts a session under an expo owned by the caller, with the
// same ownership semantics as BoothRepo.Create.
func (r *SessionRepo) Create(ctx context.Context, s *SessionRecord, callerID uint64, admin bool) error {
	var organizerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM expos WHERE id = ? AND deleted_at IS NULL`, s.ExpoID).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExpoNotFound
		}
		return err
	}
	if organizerID != callerID && !admin {
		return ErrForbidden
	}
	const q = `INSERT INTO sessions (expo_id, title, starts_at, ends_at, max_attendees, confirmed_count)
	           VALUES (?, ?, ?, ?, ?, 0)`
	result, err := r.db.ExecContext(ctx, q, s.ExpoID, s.Title, s.StartsAt, s.EndsAt, s.MaxAttendees)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ListByExpo returns all live sessions of an expo in schedule order.
func (r *SessionRepo) ListByExpo(ctx context.Context, expoID uint64) ([]SessionRecord, error) {
	const q = `SELECT id, expo_id, title,
	                  DATE_FORMAT(starts_at, '%Y-%m-%dT%H:%i:%sZ'),
	                  DATE_FORMAT(ends_at, '%Y-%m-%dT%H:%i:%sZ'),
	                  max_attendees, confirmed_count
	           FROM sessions WHERE expo_id = ? AND deleted_at IS NULL ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, expoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SessionRecord, 0)
	for rows.Next() {
		var s SessionRecord
		if err := rows.Scan(&s.ID, &s.ExpoID, &s.Title, &s.StartsAt, &s.EndsAt, &s.MaxAttendees, &s.ConfirmedCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
