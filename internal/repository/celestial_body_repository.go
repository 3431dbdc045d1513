package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skywatch/telescope-reservation/internal/model"
)

// CelestialBodyRepo provides read access to the target catalog.  Hidden
// entries stay in the table for reservations that already reference them
// but are never offered to new bookings.
type CelestialBodyRepo struct {
	db *sql.DB
}

// NewCelestialBodyRepo constructs a CelestialBodyRepo with the given DB handle.
func NewCelestialBodyRepo(db *sql.DB) *CelestialBodyRepo {
	return &CelestialBodyRepo{db: db}
}

// BodyVisible reports whether the catalog entry exists at all and, when
// it does, whether it is visible.  The two flags are distinct on purpose:
// a hidden body is rejected with the same error code as a missing one,
// but the pair keeps the repository reusable for moderation views.
func (r *CelestialBodyRepo) BodyVisible(ctx context.Context, id uint64) (exists, visible bool, err error) {
	var hidden bool
	err = r.db.QueryRowContext(ctx,
		"SELECT is_hidden FROM celestial_bodies WHERE id=? LIMIT 1", id).Scan(&hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, !hidden, nil
}

// GetByID retrieves a catalog entry by its ID.  Returns ErrBodyNotFound
// when no row is found.
func (r *CelestialBodyRepo) GetByID(ctx context.Context, id uint64) (*model.CelestialBody, error) {
	const q = `SELECT id, name, designation, is_hidden, created_at, updated_at
               FROM celestial_bodies WHERE id = ?`
	var b model.CelestialBody
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Name, &b.Designation, &b.IsHidden, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBodyNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListVisible returns the public catalog ordered by name.
func (r *CelestialBodyRepo) ListVisible(ctx context.Context) ([]*model.CelestialBody, error) {
	const q = `SELECT id, name, designation, is_hidden, created_at, updated_at
               FROM celestial_bodies WHERE is_hidden = 0 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CelestialBody
	for rows.Next() {
		b := new(model.CelestialBody)
		if err := rows.Scan(&b.ID, &b.Name, &b.Designation, &b.IsHidden, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
