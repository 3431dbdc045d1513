// Package repository holds the MySQL data access layer.  The sentinel
// values defined here let handlers distinguish failure scenarios without
// inspecting driver errors.  Not-found sentinels wrap engine.ErrNotFound
// so the admission engine recognizes them through errors.Is.
package repository

import (
	"errors"
	"fmt"

	"github.com/skywatch/telescope-reservation/internal/engine"
)

// ErrConflict is returned when the transactional overlap re-check inside
// a mutating reservation method finds a competing live booking that was
// committed after the engine's own check.  Handlers translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflicting reservation committed concurrently")

// ErrTelescopeNotFound is returned when a telescope lookup fails.
var ErrTelescopeNotFound = fmt.Errorf("telescope %w", engine.ErrNotFound)

// ErrBodyNotFound is returned when a celestial body lookup fails.
var ErrBodyNotFound = fmt.Errorf("celestial body %w", engine.ErrNotFound)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = fmt.Errorf("reservation %w", engine.ErrNotFound)

// ErrUserNotFound is returned when a user lookup by id fails.
var ErrUserNotFound = fmt.Errorf("user %w", engine.ErrNotFound)
