package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ExpoRepo encapsulates database operations for expos, including the
// lifecycle transitions that gate whether reservations are possible.
type ExpoRepo struct {
	db *sql.DB
}

// NewExpoRepo constructs an ExpoRepo given a DB handle.
func NewExpoRepo(db *sql.DB) *ExpoRepo { return &ExpoRepo{db: db} }

// ExpoRecord mirrors the schema of the expos table.
type ExpoRecord struct {
	ID          uint64  `json:"id"`
	OrganizerID uint64  `json:"organizer_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Venue       string  `json:"venue"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

const expoColumns = `id, organizer_id, title, description, venue,
	DATE_FORMAT(starts_at, '%Y-%m-%dT%H:%i:%sZ'),
	DATE_FORMAT(ends_at, '%Y-%m-%dT%H:%i:%sZ'),
	status,
	DATE_FORMAT(created_at, '%Y-%m-%dT%H:%i:%sZ')`

func scanExpo(row interface{ Scan(...any) error }) (*ExpoRecord, error) {
	var e ExpoRecord
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExpoNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new DRAFT expo and populates the generated ID.
// Timestamps are passed as UTC RFC3339 strings and stored as DATETIME.
func (r *ExpoRepo) Create(ctx context.Context, e *ExpoRecord) error {
	const q = `INSERT INTO expos (organizer_id, title, description, venue, starts_at, ends_at, status)
	           VALUES (?, ?, ?, ?, ?, ?, 'DRAFT')`
	result, err := r.db.ExecContext(ctx, q, e.OrganizerID, e.Title, e.Description, e.Venue, e.StartsAt, e.EndsAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.Status = "DRAFT"
	return nil
}

// GetByID returns an expo or ErrExpoNotFound. Soft-deleted expos are
// treated as missing.
func (r *ExpoRepo) GetByID(ctx context.Context, id uint64) (*ExpoRecord, error) {
	return scanExpo(r.db.QueryRowContext(ctx,
		`SELECT `+expoColumns+` FROM expos WHERE id = ? AND deleted_at IS NULL`, id))
}

// ListByOrganizer returns the organizer's expos, newest first.
func (r *ExpoRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]ExpoRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expoColumns+` FROM expos WHERE organizer_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`,
		organizerID)
	if err != nil {
		return nil, err
	}
	return collectExpos(rows)
}

// ListPublished returns all published expos for public browsing.
func (r *ExpoRepo) ListPublished(ctx context.Context) ([]ExpoRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expoColumns+` FROM expos WHERE status = 'PUBLISHED' AND deleted_at IS NULL ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	return collectExpos(rows)
}

func collectExpos(rows *sql.Rows) ([]ExpoRecord, error) {
	defer rows.Close()
	out := make([]ExpoRecord, 0)
	for rows.Next() {
		e, err := scanExpo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update rewrites the descriptive fields of an expo. Lifecycle status
// is never touched here; the dedicated transitions below own it.
func (r *ExpoRepo) Update(ctx context.Context, e *ExpoRecord) error {
	const q = `UPDATE expos SET title = ?, description = ?, venue = ?, starts_at = ?, ends_at = ?
	           WHERE id = ? AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.Venue, e.StartsAt, e.EndsAt, e.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows for a no-change update too;
		// distinguish missing from unchanged.
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM expos WHERE id = ? AND deleted_at IS NULL`, e.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrExpoNotFound
		}
	}
	return nil
}

// SoftDelete marks the expo and every booth and session under it as
// deleted. Reservations are kept for history; their resources simply
// stop resolving.
func (r *ExpoRepo) SoftDelete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	result, err := tx.ExecContext(ctx,
		`UPDATE expos SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpoNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE booths SET deleted_at = UTC_TIMESTAMP() WHERE expo_id = ? AND deleted_at IS NULL`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET deleted_at = UTC_TIMESTAMP() WHERE expo_id = ? AND deleted_at IS NULL`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Publish transitions DRAFT -> PUBLISHED with a conditional update, so
// a racing second publish loses cleanly with ErrConflict instead of
// silently re-publishing.
func (r *ExpoRepo) Publish(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, "DRAFT", "PUBLISHED")
}

// Complete transitions PUBLISHED -> COMPLETED. COMPLETED is terminal.
func (r *ExpoRepo) Complete(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, "PUBLISHED", "COMPLETED")
}

func (r *ExpoRepo) transition(ctx context.Context, id uint64, from, to string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE expos SET status = ? WHERE id = ? AND status = ? AND deleted_at IS NULL`, to, id, from)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM expos WHERE id = ? AND deleted_at IS NULL`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrExpoNotFound
		}
		return ErrConflict
	}
	return nil
}

// Unpublish transitions PUBLISHED -> DRAFT. The transition is blocked
// with ErrConflict while any confirmed reservation exists under the
// expo (policy: organizers must clear reservations first; a lifecycle
// toggle never cascades into exhibitor- or attendee-owned state). The
// status row is locked so a booking committing between the count and
// the update cannot slip through.
func (r *ExpoRepo) Unpublish(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM expos WHERE id = ? AND deleted_at IS NULL FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExpoNotFound
		}
		return err
	}
	if status != "PUBLISHED" {
		return ErrConflict
	}

	var confirmed int
	const countQ = `SELECT COUNT(*) FROM reservations r
	                WHERE r.status = 'CONFIRMED' AND (
	                      (r.resource_type = 'BOOTH'   AND r.resource_id IN (SELECT id FROM booths   WHERE expo_id = ?))
	                   OR (r.resource_type = 'SESSION' AND r.resource_id IN (SELECT id FROM sessions WHERE expo_id = ?)))`
	if err := tx.QueryRowContext(ctx, countQ, id, id).Scan(&confirmed); err != nil {
		return err
	}
	if confirmed > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `UPDATE expos SET status = 'DRAFT' WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
