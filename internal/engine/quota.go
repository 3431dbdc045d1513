package engine

import (
	"context"
	"time"
)

// quota.go is the time quota ledger.  A user's committed time is the sum
// of their live reservations' durations.  The applicable cap is the
// explicit per-user cap when one is set, otherwise a two-tier default
// keyed by the user's highest membership role.

// Tier defaults.  Guests get a strict baseline; every verified membership
// role shares the elevated allowance.
const (
	GuestAllowance  = 2 * time.Hour
	MemberAllowance = 10 * time.Hour
)

// checkQuota verifies that admitting a window of the proposed duration
// keeps the user within their allowance.  When editing an existing
// reservation, its current persisted duration is subtracted first, so
// shrinking or moving one's own booking is never penalized by its own
// prior footprint.  Returns nil when the proposal fits.
func (e *Engine) checkQuota(ctx context.Context, userID uint64, proposed time.Duration, editing *Reservation) (*ErrorSet, error) {
	committed, err := e.Reservations.SumLiveDuration(ctx, userID)
	if err != nil {
		return nil, err
	}
	if editing != nil && editing.Status.Live() {
		committed -= editing.Duration()
		if committed < 0 {
			committed = 0
		}
	}

	allowance, err := e.allowanceFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if allowance == nil {
		// A nil resolved allowance is the unlimited case.
		return nil, nil
	}
	if *allowance < 0 {
		return quotaSet(CodeCategoryOfService, "user resolves to no recognized service tier"), nil
	}
	if committed+proposed > *allowance {
		return quotaSet(CodeAllottedTime, "allotted observation time exceeded"), nil
	}
	return nil, nil
}

// allowanceFor resolves the applicable cap for a user.  The returned
// pointer is nil for unlimited, negative for "no recognized role"
// (CATEGORY_OF_SERVICE), and the cap value otherwise.
func (e *Engine) allowanceFor(ctx context.Context, userID uint64) (*time.Duration, error) {
	explicit, err := e.Users.QuotaCap(ctx, userID)
	if err != nil {
		return nil, err
	}
	if explicit != nil {
		if *explicit <= 0 {
			// An explicit cap record with no positive value means the
			// user is uncapped.
			return nil, nil
		}
		return explicit, nil
	}

	role, err := e.Users.HighestRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		unresolved := time.Duration(-1)
		return &unresolved, nil
	}
	d := MemberAllowance
	if role == RoleGuest {
		d = GuestAllowance
	}
	return &d, nil
}
