package engine

import (
	"context"
	"time"
)

// conflict.go is the interval conflict detector.  Both paths are
// read-only; the store's FindOverlapping applies the standard half-open
// overlap predicate (existingStart < end AND start < existingEnd) over
// live reservations only.
//
// The create path and the update path are deliberately asymmetric.  On
// create, any match at all is a conflict.  On update, the candidate set
// still contains the reservation being edited, so the detector first
// treats more than one raw match as a conflict, then removes the edited
// reservation and tests again.  The double-check on the raw count is a
// documented design choice; do not unify the two paths, or previously
// accepted bookings may silently change admissibility.

// hasCreateConflict reports whether [start,end) intersects any live
// reservation on the telescope.
func (e *Engine) hasCreateConflict(ctx context.Context, telescopeID uint64, start, end time.Time) (bool, error) {
	overlaps, err := e.Reservations.FindOverlapping(ctx, telescopeID, start, end)
	if err != nil {
		return false, err
	}
	return len(overlaps) > 0, nil
}

// hasUpdateConflict reports whether [start,end) intersects a live
// reservation other than the one being edited.
func (e *Engine) hasUpdateConflict(ctx context.Context, telescopeID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	overlaps, err := e.Reservations.FindOverlapping(ctx, telescopeID, start, end)
	if err != nil {
		return false, err
	}
	// More than one raw match means some other reservation overlaps no
	// matter which one of them is the edited record.
	if len(overlaps) > 1 {
		return true, nil
	}
	for _, o := range overlaps {
		if o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}
