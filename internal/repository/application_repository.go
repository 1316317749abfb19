package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ApplicationRepo persists exhibitor applications. Applications carry
// their own approval workflow and never touch the capacity ledger;
// they must not be confused with booth slot reservations.
type ApplicationRepo struct {
	db *sql.DB
}

// NewApplicationRepo constructs an ApplicationRepo given a DB handle.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// ApplicationRecord mirrors the schema of the applications table.
type ApplicationRecord struct {
	ID          uint64  `json:"id"`
	ExpoID      uint64  `json:"expo_id"`
	ExhibitorID uint64  `json:"exhibitor_id"`
	Status      string  `json:"status"`
	Note        string  `json:"note"`
	DecidedBy   *uint64 `json:"decided_by,omitempty"`
}

// Create inserts a PENDING application. A second pending or approved
// application from the same exhibitor for the same expo is rejected
// with ErrConflict.
func (r *ApplicationRepo) Create(ctx context.Context, a *ApplicationRecord) error {
	var existing int
	const dupQ = `SELECT COUNT(*) FROM applications
	              WHERE expo_id = ? AND exhibitor_id = ? AND status IN ('PENDING','APPROVED')`
	if err := r.db.QueryRowContext(ctx, dupQ, a.ExpoID, a.ExhibitorID).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return ErrConflict
	}
	const q = `INSERT INTO applications (expo_id, exhibitor_id, status, note) VALUES (?, ?, 'PENDING', ?)`
	result, err := r.db.ExecContext(ctx, q, a.ExpoID, a.ExhibitorID, a.Note)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Status = "PENDING"
	return nil
}

// GetByID returns an application or ErrApplicationNotFound.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*ApplicationRecord, error) {
	const q = `SELECT id, expo_id, exhibitor_id, status, note, decided_by FROM applications WHERE id = ?`
	var a ApplicationRecord
	var decidedBy sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.ExpoID, &a.ExhibitorID, &a.Status, &a.Note, &decidedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if decidedBy.Valid {
		v := uint64(decidedBy.Int64)
		a.DecidedBy = &v
	}
	return &a, nil
}

// ListByExpo returns an expo's applications, pending first then by age.
func (r *ApplicationRepo) ListByExpo(ctx context.Context, expoID uint64) ([]ApplicationRecord, error) {
	const q = `SELECT id, expo_id, exhibitor_id, status, note, decided_by
	           FROM applications WHERE expo_id = ?
	           ORDER BY status = 'PENDING' DESC, created_at`
	rows, err := r.db.QueryContext(ctx, q, expoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ApplicationRecord, 0)
	for rows.Next() {
		var a ApplicationRecord
		var decidedBy sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ExpoID, &a.ExhibitorID, &a.Status, &a.Note, &decidedBy); err != nil {
			return nil, err
		}
		if decidedBy.Valid {
			v := uint64(decidedBy.Int64)
			a.DecidedBy = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Decide transitions PENDING -> APPROVED or PENDING -> REJECTED. The
// conditional update enforces that decided applications stay decided:
// a repeat or racing decision gets ErrConflict.
func (r *ApplicationRepo) Decide(ctx context.Context, id, deciderID uint64, approve bool) error {
	status := "REJECTED"
	if approve {
		status = "APPROVED"
	}
	const q = `UPDATE applications SET status = ?, decided_by = ? WHERE id = ? AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, q, status, deciderID, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrApplicationNotFound
		}
		return ErrConflict
	}
	return nil
}
