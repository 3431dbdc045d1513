package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/skywatch/telescope-reservation/internal/engine"
	"github.com/skywatch/telescope-reservation/internal/model"
	"github.com/skywatch/telescope-reservation/internal/utils"
)

// UserRepo persists accounts and answers the admission engine's questions
// about a user: existence, explicit quota cap and membership role.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts user and returns its ID.  quota_minutes stays NULL so
// the role-tier default applies until staff assigns an explicit cap.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var quota sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,quota_minutes,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &quota, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if quota.Valid {
		m := quota.Int64
		u.QuotaMinutes = &m
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var quota sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,quota_minutes,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &quota, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if quota.Valid {
		m := quota.Int64
		u.QuotaMinutes = &m
	}
	return u, err
}

// SetQuotaMinutes assigns or clears a user's explicit observation-time
// cap.  Passing nil clears the cap so the role-tier default applies.
func (r *UserRepo) SetQuotaMinutes(ctx context.Context, id uint64, minutes *int64) error {
	var v sql.NullInt64
	if minutes != nil {
		v = sql.NullInt64{Int64: *minutes, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET quota_minutes=? WHERE id=?", v, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Exists reports whether an active user with the id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// QuotaCap returns the user's explicit observation-time allowance.  nil
// means no cap is set on the row and the caller falls back to the
// role-tier default; a non-positive stored value means uncapped.
func (r *UserRepo) QuotaCap(ctx context.Context, id uint64) (*time.Duration, error) {
	var quota sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT quota_minutes FROM users WHERE id=? LIMIT 1", id).Scan(&quota)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !quota.Valid {
		return nil, nil
	}
	d := time.Duration(quota.Int64) * time.Minute
	return &d, nil
}

// HighestRole resolves the user's membership role.  The schema stores a
// single role per user, so "highest" is the stored value itself; an
// unrecognized or missing role comes back as the empty string, which the
// engine treats as no-role.
func (r *UserRepo) HighestRole(ctx context.Context, id uint64) (engine.Role, error) {
	var role string
	err := r.DB.QueryRowContext(ctx,
		"SELECT role FROM users WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !engine.ValidRole(engine.Role(role)) {
		return "", nil
	}
	return engine.Role(role), nil
}
