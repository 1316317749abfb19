package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and implements
// booking.Store over MySQL. The per-resource atomicity the booking
// contract requires is obtained with SELECT ... FOR UPDATE on the booth
// or session row: the lock scopes to that one row, so bookings against
// different resources proceed in parallel while two bookings against
// the same resource serialize on the capacity check.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need to open their
// own transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// resourceQuery returns the locked/unlocked lookup statement for a
// resource kind. Sessions close at the earlier of their own end and the
// expo end; booths close with the expo.
func resourceQuery(t model.ResourceType, forUpdate bool) (string, bool) {
	var q string
	switch t {
	case model.ResourceBooth:
		q = `SELECT b.expo_id, b.label, b.capacity, b.confirmed_count, e.status, e.ends_at, e.ends_at
		     FROM booths b
		     JOIN expos e ON e.id = b.expo_id
		     WHERE b.id = ? AND b.deleted_at IS NULL AND e.deleted_at IS NULL`
	case model.ResourceSession:
		q = `SELECT s.expo_id, s.title, s.max_attendees, s.confirmed_count, e.status, e.ends_at, s.ends_at
		     FROM sessions s
		     JOIN expos e ON e.id = s.expo_id
		     WHERE s.id = ? AND s.deleted_at IS NULL AND e.deleted_at IS NULL`
	default:
		return "", false
	}
	if forUpdate {
		q += " FOR UPDATE"
	}
	return q, true
}

func scanResourceInfo(row *sql.Row, ref model.ResourceRef) (*model.ResourceInfo, error) {
	info := model.ResourceInfo{Ref: ref}
	var expoEnds, ownEnds time.Time
	err := row.Scan(&info.ExpoID, &info.Label, &info.Capacity, &info.ConfirmedCount,
		&info.ExpoStatus, &expoEnds, &ownEnds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	info.ClosesAt = expoEnds
	if ownEnds.Before(expoEnds) {
		info.ClosesAt = ownEnds
	}
	return &info, nil
}

// Resource implements booking.Store with a plain snapshot read.
func (r *ReservationRepo) Resource(ctx context.Context, ref model.ResourceRef) (*model.ResourceInfo, error) {
	q, ok := resourceQuery(ref.Type, false)
	if !ok {
		return nil, booking.ErrNotFound
	}
	return scanResourceInfo(r.db.QueryRowContext(ctx, q, ref.ID), ref)
}

// ExpoResources implements booking.Store. Booths come first, then
// sessions, each ordered by id.
func (r *ReservationRepo) ExpoResources(ctx context.Context, expoID uint64) ([]model.ResourceInfo, error) {
	const q = `SELECT 'BOOTH', b.id, b.label, b.capacity, b.confirmed_count, e.status, e.ends_at, e.ends_at
	           FROM booths b JOIN expos e ON e.id = b.expo_id
	           WHERE b.expo_id = ? AND b.deleted_at IS NULL AND e.deleted_at IS NULL
	           UNION ALL
	           SELECT 'SESSION', s.id, s.title, s.max_attendees, s.confirmed_count, e.status, e.ends_at, s.ends_at
	           FROM sessions s JOIN expos e ON e.id = s.expo_id
	           WHERE s.expo_id = ? AND s.deleted_at IS NULL AND e.deleted_at IS NULL
	           ORDER BY 1, 2`
	rows, err := r.db.QueryContext(ctx, q, expoID, expoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ResourceInfo, 0)
	for rows.Next() {
		var info model.ResourceInfo
		var kind string
		var expoEnds, ownEnds time.Time
		if err := rows.Scan(&kind, &info.Ref.ID, &info.Label, &info.Capacity, &info.ConfirmedCount,
			&info.ExpoStatus, &expoEnds, &ownEnds); err != nil {
			return nil, err
		}
		info.Ref.Type = model.ResourceType(kind)
		info.ExpoID = expoID
		info.ClosesAt = expoEnds
		if ownEnds.Before(expoEnds) {
			info.ClosesAt = ownEnds
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func counterTable(t model.ResourceType) (table, column string) {
	if t == model.ResourceBooth {
		return "booths", "capacity"
	}
	return "sessions", "max_attendees"
}

// Book implements booking.Store. The guard sequence — parent open,
// no duplicate active reservation, free slot — runs while holding the
// row lock taken by the FOR UPDATE read, and the counter increment and
// reservation insert commit together or not at all.
func (r *ReservationRepo) Book(ctx context.Context, ref model.ResourceRef, userID uint64, reference string, now time.Time) (*model.Reservation, error) {
	q, ok := resourceQuery(ref.Type, true)
	if !ok {
		return nil, booking.ErrNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	info, err := scanResourceInfo(tx.QueryRowContext(ctx, q, ref.ID), ref)
	if err != nil {
		return nil, err
	}
	if !info.Open(now) {
		return nil, booking.ErrLifecycleClosed
	}

	var active int
	const dupQ = `SELECT COUNT(*) FROM reservations
	              WHERE resource_type = ? AND resource_id = ? AND user_id = ?
	                AND status IN ('PENDING','CONFIRMED')`
	if err := tx.QueryRowContext(ctx, dupQ, ref.Type, ref.ID, userID).Scan(&active); err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, booking.ErrAlreadyReserved
	}
	if info.ConfirmedCount >= info.Capacity {
		return nil, booking.ErrCapacityExceeded
	}

	table, _ := counterTable(ref.Type)
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET confirmed_count = confirmed_count + 1 WHERE id = ?`, ref.ID); err != nil {
		return nil, err
	}

	const ins = `INSERT INTO reservations (reference, resource_type, resource_id, user_id, status)
	             VALUES (?, ?, ?, ?, 'CONFIRMED')`
	result, err := tx.ExecContext(ctx, ins, reference, ref.Type, ref.ID, userID)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{ID: uint64(id)}
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT id, reference, resource_type, resource_id, user_id, status, created_at, updated_at
	             FROM reservations WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.Reference, &res.ResourceType, &res.ResourceID, &res.UserID,
		&res.Status, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// Reservation implements booking.Store.
func (r *ReservationRepo) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, reference, resource_type, resource_id, user_id, status, created_at, updated_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.Reference, &res.ResourceType, &res.ResourceID, &res.UserID,
		&res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// CancelConfirmed implements booking.Store. The conditional UPDATE on
// status makes the transition race-safe: whichever concurrent cancel
// flips the row first wins, the other sees zero affected rows and
// reports false. The counter release shares the transaction, floored
// at zero so a reconciliation bug can never underflow it.
func (r *ReservationRepo) CancelConfirmed(ctx context.Context, id uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var resType model.ResourceType
	var resourceID uint64
	const sel = `SELECT resource_type, resource_id FROM reservations WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, sel, id).Scan(&resType, &resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, booking.ErrNotFound
		}
		return false, err
	}

	const upd = `UPDATE reservations SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`
	result, err := tx.ExecContext(ctx, upd, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	table, _ := counterTable(resType)
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET confirmed_count = IF(confirmed_count > 0, confirmed_count - 1, 0) WHERE id = ?`,
		resourceID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// ReservationDetail pairs a reservation with the labels a client needs
// to render it without extra lookups.
type ReservationDetail struct {
	ID           uint64 `json:"id"`
	Reference    string `json:"reference"`
	ResourceType string `json:"resource_type"`
	ResourceID   uint64 `json:"resource_id"`
	ResourceName string `json:"resource_name"`
	ExpoID       uint64 `json:"expo_id"`
	ExpoTitle    string `json:"expo_title"`
	UserID       uint64 `json:"user_id"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

const detailColumns = `
	SELECT r.id, r.reference, r.resource_type, r.resource_id,
	       COALESCE(b.label, s.title, ''), e.id, e.title,
	       r.user_id, r.status, r.created_at
	FROM reservations r
	LEFT JOIN booths   b ON r.resource_type = 'BOOTH'   AND b.id = r.resource_id
	LEFT JOIN sessions s ON r.resource_type = 'SESSION' AND s.id = r.resource_id
	JOIN expos e ON e.id = COALESCE(b.expo_id, s.expo_id)`

func scanDetails(rows *sql.Rows) ([]ReservationDetail, error) {
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.Reference, &d.ResourceType, &d.ResourceID,
			&d.ResourceName, &d.ExpoID, &d.ExpoTitle, &d.UserID, &d.Status, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByUser returns all reservations of a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailColumns+`
	WHERE r.user_id = ?
	ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows)
}

// ListByExpo returns all reservations under an expo for its organizer,
// newest first. Ownership is validated first: ErrExpoNotFound when the
// expo does not exist, ErrForbidden when it belongs to someone else and
// the caller is not an admin.
func (r *ReservationRepo) ListByExpo(ctx context.Context, expoID, callerID uint64, admin bool) ([]ReservationDetail, error) {
	var organizerID uint64
	const checkQ = `SELECT organizer_id FROM expos WHERE id = ? AND deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, checkQ, expoID).Scan(&organizerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExpoNotFound
		}
		return nil, err
	}
	if organizerID != callerID && !admin {
		return nil, ErrForbidden
	}
	rows, err := r.db.QueryContext(ctx, detailColumns+`
	WHERE e.id = ?
	ORDER BY r.created_at DESC`, expoID)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows)
}

// ConfirmedCountByResource recomputes the confirmed reservation count
// from the rows themselves. The booths/sessions confirmed_count column
// is a materialized view of this value; reconciliation jobs and tests
// compare the two.
func (r *ReservationRepo) ConfirmedCountByResource(ctx context.Context, ref model.ResourceRef) (uint32, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE resource_type = ? AND resource_id = ? AND status = 'CONFIRMED'`
	var n uint32
	if err := r.db.QueryRowContext(ctx, q, ref.Type, ref.ID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
