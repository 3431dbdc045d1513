package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skywatch/telescope-reservation/internal/model"
)

// TelescopeRepo provides read access to the telescope fleet.  Telescopes
// are maintained by operators directly in the database; the service only
// resolves and lists them.
type TelescopeRepo struct {
	db *sql.DB
}

// NewTelescopeRepo constructs a TelescopeRepo with the given DB handle.
func NewTelescopeRepo(db *sql.DB) *TelescopeRepo {
	return &TelescopeRepo{db: db}
}

// Exists reports whether an active telescope with the id exists.
// Inactive instruments are treated as absent so admission rejects them
// as an unknown reference.
func (r *TelescopeRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM telescopes WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a telescope by its ID.  Returns ErrTelescopeNotFound
// when no row is found.
func (r *TelescopeRepo) GetByID(ctx context.Context, id uint64) (*model.Telescope, error) {
	const q = `SELECT id, name, site, aperture, is_active, created_at, updated_at
               FROM telescopes WHERE id = ?`
	var t model.Telescope
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Site, &t.Aperture, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTelescopeNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListActive returns every telescope currently accepting reservations,
// ordered by id for deterministic output.
func (r *TelescopeRepo) ListActive(ctx context.Context) ([]*model.Telescope, error) {
	const q = `SELECT id, name, site, aperture, is_active, created_at, updated_at
               FROM telescopes WHERE is_active = 1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Telescope
	for rows.Next() {
		t := new(model.Telescope)
		if err := rows.Scan(&t.ID, &t.Name, &t.Site, &t.Aperture, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
