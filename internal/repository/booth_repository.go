package repository

import (
	"context"
	"database/sql"
	"errors"
)

// BoothRepo encapsulates database operations for booths. Capacity
// counters on booth rows are owned by the reservation path and are
// never written here.
type BoothRepo struct {
	db *sql.DB
}

// NewBoothRepo constructs a BoothRepo given a DB handle.
func NewBoothRepo(db *sql.DB) *BoothRepo { return &BoothRepo{db: db} }

// BoothRecord mirrors the schema of the booths table.
type BoothRecord struct {
	ID             uint64 `json:"id"`
	ExpoID         uint64 `json:"expo_id"`
	Label          string `json:"label"`
	Capacity       uint32 `json:"capacity"`
	ConfirmedCount uint32 `json:"confirmed_count"`
	PriceTier      string `json:"price_tier"`
}

// Create inserts a booth under an expo owned by the caller. Ownership
// is verified in the same statement path: ErrExpoNotFound when the expo
// is missing, ErrForbidden when it belongs to someone else and the
// caller is not an admin. Capacity must already be validated (>= 1).
func (r *BoothRepo) Create(ctx context.Context, b *BoothRecord, callerID uint64, admin bool) error {
	var organizerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM expos WHERE id = ? AND deleted_at IS NULL`, b.ExpoID).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExpoNotFound
		}
		return err
	}
	if organizerID != callerID && !admin {
		return ErrForbidden
	}
	const q = `INSERT INTO booths (expo_id, label, capacity, confirmed_count, price_tier)
	           VALUES (?, ?, ?, 0, ?)`
	result, err := r.db.ExecContext(ctx, q, b.ExpoID, b.Label, b.Capacity, b.PriceTier)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ListByExpo returns all live booths of an expo ordered by label.
func (r *BoothRepo) ListByExpo(ctx context.Context, expoID uint64) ([]BoothRecord, error) {
	const q = `SELECT id, expo_id, label, capacity, confirmed_count, price_tier
	           FROM booths WHERE expo_id = ? AND deleted_at IS NULL ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, expoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BoothRecord, 0)
	for rows.Next() {
		var b BoothRecord
		if err := rows.Scan(&b.ID, &b.ExpoID, &b.Label, &b.Capacity, &b.ConfirmedCount, &b.PriceTier); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
