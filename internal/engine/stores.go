package engine

import (
	"context"
	"time"
)

// stores.go declares the collaborator interfaces the engine consumes.
// The MySQL implementations live in internal/repository; the engine tests
// substitute in-memory fakes.  Every method may block on I/O and accepts
// a context.  The reservation store carries the concurrency guarantee of
// the admission pipeline: mutating methods must re-check overlap and
// commit inside one transaction, so that two concurrent admissions for
// the same telescope cannot both pass and both commit.

// ReservationStore persists reservations and their variant payloads.
type ReservationStore interface {
	// GetByID loads one reservation with its payload.  Returns a
	// ErrNotFound-wrapping error when the id matches no row.
	GetByID(ctx context.Context, id uint64) (*Reservation, error)

	// FindOverlapping returns every live reservation on the telescope
	// whose window intersects the half-open interval [start,end).  No
	// exclusion is applied here; the engine handles self-exclusion on
	// the update path itself.
	FindOverlapping(ctx context.Context, telescopeID uint64, start, end time.Time) ([]Reservation, error)

	// SumLiveDuration returns the total committed duration of the
	// user's live reservations.
	SumLiveDuration(ctx context.Context, userID uint64) (time.Duration, error)

	// Create inserts a reservation plus its variant payload in one
	// transaction and returns the new id.
	Create(ctx context.Context, r *Reservation) (uint64, error)

	// UpdateInPlace rewrites shared fields and the variant payload of an
	// existing reservation whose variant tag is unchanged.  List-valued
	// payloads are replaced wholesale, not diffed.
	UpdateInPlace(ctx context.Context, r *Reservation) error

	// ReplaceVariant deletes the reservation oldID together with its
	// payload and inserts r as a brand-new record, all in one
	// transaction.  The caller has already copied the preserved
	// {owner, status} pair onto r.  Returns the replacement id.
	ReplaceVariant(ctx context.Context, oldID uint64, r *Reservation) (uint64, error)

	// UpdateStatus transitions the reservation's lifecycle status.
	UpdateStatus(ctx context.Context, id uint64, status Status) error

	// HasShare reports whether a viewer-sharing grant exists for the
	// reservation/user pair.
	HasShare(ctx context.Context, reservationID, userID uint64) (bool, error)
}

// UserStore resolves users, their explicit quota caps and their roles.
type UserStore interface {
	// Exists reports whether a user row with the id exists.
	Exists(ctx context.Context, id uint64) (bool, error)

	// QuotaCap returns the user's explicit time allowance.  nil means no
	// per-user cap is set and the role-tier default applies.  A
	// non-positive cap means unlimited.
	QuotaCap(ctx context.Context, id uint64) (*time.Duration, error)

	// HighestRole returns the strongest membership role the user holds,
	// or the empty string when the user resolves to no recognized role.
	HighestRole(ctx context.Context, id uint64) (Role, error)
}

// TelescopeStore resolves telescope ids.
type TelescopeStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// CatalogStore resolves celestial-body catalog entries.
type CatalogStore interface {
	// BodyVisible reports whether the catalog entry exists and whether
	// it is visible (not hidden by a moderator).
	BodyVisible(ctx context.Context, id uint64) (exists, visible bool, err error)
}

// AuditSink accepts admission outcomes.  Implementations must be
// fire-and-forget: a sink failure never affects the admission result.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}
