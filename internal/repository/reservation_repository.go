package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/skywatch/telescope-reservation/internal/engine"
)

// ReservationRepo persists reservations and their variant payloads.  A
// reservation row carries the shared columns plus the variant tag;
// sky_coordinates and orientations hold the per-variant targeting data
// and belong to exactly one reservation each.
//
// Mutating methods re-check window overlap inside the transaction with
// the candidate rows locked (SELECT ... FOR UPDATE), so two concurrent
// admissions that both passed the engine's check cannot both commit.
// The loser gets ErrConflict.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// liveStatuses is the status set that participates in conflict detection
// and quota accounting.  Must stay in sync with Status.Live.
const liveStatuses = `('REQUESTED','SCHEDULED','IN_PROGRESS')`

// reservationCols is the shared column list scanned by scanReservation.
const reservationCols = `id, telescope_id, owner_id, starts_at, ends_at, is_public, priority, status, variant, body_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReservation maps one reservations row onto the engine type.  The
// variant payload tables are not touched here; callers that need the
// full payload follow up with loadPayload.
func scanReservation(s rowScanner) (*engine.Reservation, error) {
	var (
		r      engine.Reservation
		prio   string
		status string
		kind   string
		bodyID sql.NullInt64
	)
	if err := s.Scan(&r.ID, &r.TelescopeID, &r.OwnerID, &r.Start, &r.End,
		&r.Public, &prio, &status, &kind, &bodyID); err != nil {
		return nil, err
	}
	r.Priority = engine.Priority(prio)
	r.Status = engine.Status(status)
	r.Variant = engine.Variant{Kind: engine.VariantKind(kind)}
	if bodyID.Valid {
		r.Variant.BodyID = uint64(bodyID.Int64)
	}
	return &r, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// loadPayload fills in the variant payload for a scanned reservation.
func loadPayload(ctx context.Context, q queryer, r *engine.Reservation) error {
	switch r.Variant.Kind {
	case engine.VariantPoint, engine.VariantRasterScan:
		const coordQ = `SELECT ra_hours, ra_minutes, ra_seconds, declination
		                FROM sky_coordinates WHERE reservation_id = ? ORDER BY position`
		rows, err := q.QueryContext(ctx, coordQ, r.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c engine.SkyCoordinate
			if err := rows.Scan(&c.RAHours, &c.RAMinutes, &c.RASeconds, &c.Declination); err != nil {
				return err
			}
			r.Variant.Coordinates = append(r.Variant.Coordinates, c)
		}
		return rows.Err()
	case engine.VariantDriftScan, engine.VariantFreeControl:
		const oriQ = `SELECT azimuth, elevation FROM orientations WHERE reservation_id = ? LIMIT 1`
		var o engine.Orientation
		if err := q.QueryRowContext(ctx, oriQ, r.ID).Scan(&o.Azimuth, &o.Elevation); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		r.Variant.Orientation = &o
	}
	// CELESTIAL_BODY stores its reference on the reservation row itself.
	return nil
}

// GetByID loads one reservation with its full variant payload.  Returns
// ErrReservationNotFound when no row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*engine.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if err := loadPayload(ctx, r.db, res); err != nil {
		return nil, err
	}
	return res, nil
}

// FindOverlapping returns every live reservation on the telescope whose
// window intersects the half-open interval [start,end).  Touching
// endpoints do not intersect, hence the strict comparisons.  Payloads
// are not loaded; conflict detection only needs the windows.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, telescopeID uint64, start, end time.Time) ([]engine.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
               WHERE telescope_id = ? AND status IN ` + liveStatuses + `
                 AND starts_at < ? AND ? < ends_at
               ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, telescopeID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SumLiveDuration returns the total committed duration of the user's
// live reservations.
func (r *ReservationRepo) SumLiveDuration(ctx context.Context, userID uint64) (time.Duration, error) {
	const q = `SELECT COALESCE(SUM(TIMESTAMPDIFF(SECOND, starts_at, ends_at)), 0)
               FROM reservations WHERE owner_id = ? AND status IN ` + liveStatuses
	var seconds int64
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&seconds); err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// lockOverlapTx locks the live rows on the telescope that intersect
// [start,end) and returns ErrConflict when any besides excludeID exist.
// Pass excludeID 0 on the create path.
func lockOverlapTx(ctx context.Context, tx *sql.Tx, telescopeID uint64, start, end time.Time, excludeID uint64) error {
	const q = `SELECT id FROM reservations
               WHERE telescope_id = ? AND status IN ` + liveStatuses + `
                 AND starts_at < ? AND ? < ends_at
               FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, telescopeID, end, start)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if id != excludeID {
			return ErrConflict
		}
	}
	return rows.Err()
}

// insertPayloadTx writes the variant payload rows for reservation id.
func insertPayloadTx(ctx context.Context, tx *sql.Tx, id uint64, v engine.Variant) error {
	switch v.Kind {
	case engine.VariantPoint, engine.VariantRasterScan:
		const q = `INSERT INTO sky_coordinates (reservation_id, position, ra_hours, ra_minutes, ra_seconds, declination)
		           VALUES (?, ?, ?, ?, ?, ?)`
		for i, c := range v.Coordinates {
			if _, err := tx.ExecContext(ctx, q, id, i, c.RAHours, c.RAMinutes, c.RASeconds, c.Declination); err != nil {
				return err
			}
		}
	case engine.VariantDriftScan, engine.VariantFreeControl:
		const q = `INSERT INTO orientations (reservation_id, azimuth, elevation) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, q, id, v.Orientation.Azimuth, v.Orientation.Elevation); err != nil {
			return err
		}
	}
	return nil
}

// deletePayloadTx removes every payload row owned by reservation id.
// Both tables are cleared unconditionally; at most one holds rows.
func deletePayloadTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sky_coordinates WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM orientations WHERE reservation_id = ?`, id)
	return err
}

// insertReservationTx inserts the reservation row and returns the new id.
func insertReservationTx(ctx context.Context, tx *sql.Tx, res *engine.Reservation) (uint64, error) {
	const q = `INSERT INTO reservations (telescope_id, owner_id, starts_at, ends_at, is_public, priority, status, variant, body_id)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var bodyID sql.NullInt64
	if res.Variant.Kind == engine.VariantCelestialBody {
		bodyID = sql.NullInt64{Int64: int64(res.Variant.BodyID), Valid: true}
	}
	out, err := tx.ExecContext(ctx, q, res.TelescopeID, res.OwnerID, res.Start, res.End,
		res.Public, string(res.Priority), string(res.Status), string(res.Variant.Kind), bodyID)
	if err != nil {
		return 0, err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Create inserts a reservation plus its variant payload in one
// transaction.  The locked overlap re-check closes the race between the
// engine's conflict check and the commit.
func (r *ReservationRepo) Create(ctx context.Context, res *engine.Reservation) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lockOverlapTx(ctx, tx, res.TelescopeID, res.Start, res.End, 0); err != nil {
		return 0, err
	}
	id, err := insertReservationTx(ctx, tx, res)
	if err != nil {
		return 0, err
	}
	if err := insertPayloadTx(ctx, tx, id, res.Variant); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	res.ID = id
	return id, nil
}

// UpdateInPlace rewrites the shared columns and the variant payload of
// an existing reservation whose variant tag is unchanged.  Payload rows
// are replaced wholesale rather than diffed.
func (r *ReservationRepo) UpdateInPlace(ctx context.Context, res *engine.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockOverlapTx(ctx, tx, res.TelescopeID, res.Start, res.End, res.ID); err != nil {
		return err
	}
	const q = `UPDATE reservations
               SET telescope_id = ?, starts_at = ?, ends_at = ?, is_public = ?, priority = ?, body_id = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	var bodyID sql.NullInt64
	if res.Variant.Kind == engine.VariantCelestialBody {
		bodyID = sql.NullInt64{Int64: int64(res.Variant.BodyID), Valid: true}
	}
	out, err := tx.ExecContext(ctx, q, res.TelescopeID, res.Start, res.End,
		res.Public, string(res.Priority), bodyID, res.ID)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		// RowsAffected can also be 0 for a no-op update, so confirm the
		// row is really gone before reporting not-found.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, res.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return err
		}
	}
	if err := deletePayloadTx(ctx, tx, res.ID); err != nil {
		return err
	}
	if err := insertPayloadTx(ctx, tx, res.ID, res.Variant); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceVariant deletes the reservation oldID together with its payload
// and inserts res as a brand-new record, all in one transaction.  The
// caller has already copied the preserved {owner, status} pair onto res.
func (r *ReservationRepo) ReplaceVariant(ctx context.Context, oldID uint64, res *engine.Reservation) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lockOverlapTx(ctx, tx, res.TelescopeID, res.Start, res.End, oldID); err != nil {
		return 0, err
	}
	if err := deletePayloadTx(ctx, tx, oldID); err != nil {
		return 0, err
	}
	out, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, oldID)
	if err != nil {
		return 0, err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return 0, ErrReservationNotFound
	}
	id, err := insertReservationTx(ctx, tx, res)
	if err != nil {
		return 0, err
	}
	if err := insertPayloadTx(ctx, tx, id, res.Variant); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	res.ID = id
	return id, nil
}

// UpdateStatus transitions the reservation's lifecycle status.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status engine.Status) error {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	out, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return err
		}
	}
	return nil
}

// HasShare reports whether a viewer-sharing grant exists for the
// reservation/user pair.
func (r *ReservationRepo) HasShare(ctx context.Context, reservationID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM reservation_shares WHERE reservation_id=? AND user_id=? LIMIT 1",
		reservationID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddShare grants userID read access to the reservation.  Duplicate
// grants are absorbed by the unique key on the pair.
func (r *ReservationRepo) AddShare(ctx context.Context, reservationID, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO reservation_shares (reservation_id, user_id) VALUES (?,?)",
		reservationID, userID)
	return err
}

// RemoveShare revokes a previously granted view share.
func (r *ReservationRepo) RemoveShare(ctx context.Context, reservationID, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM reservation_shares WHERE reservation_id=? AND user_id=?",
		reservationID, userID)
	return err
}

// ListByOwner returns all of a user's reservations newest-window first.
// Payloads are not loaded; list views only show the shared columns.
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]engine.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
               WHERE owner_id = ? ORDER BY starts_at DESC`
	return r.list(ctx, q, ownerID)
}

// ListPublicByTelescope returns the telescope's live public schedule
// ordered by window start, for the unauthenticated browse endpoint.
func (r *ReservationRepo) ListPublicByTelescope(ctx context.Context, telescopeID uint64) ([]engine.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
               WHERE telescope_id = ? AND is_public = 1 AND status IN ` + liveStatuses + `
               ORDER BY starts_at`
	return r.list(ctx, q, telescopeID)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]engine.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]engine.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
