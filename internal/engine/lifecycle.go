package engine

import "context"

// lifecycle.go holds the status transitions that carry no admission
// pipeline of their own: cancellation, staff approval/denial of requested
// reservations, and the explicit start/stop sequence for free-control
// sessions.  Completed and Cancelled are terminal; nothing transitions
// out of them.

// Cancel moves a live reservation to Cancelled.  The owner (or an admin)
// may cancel; visibility and priority gate the operation through the same
// rule table as every other mutation.
func (e *Engine) Cancel(ctx context.Context, caller CallerContext, id uint64) (*ErrorSet, error) {
	target, d, err := e.AuthorizeTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		errs := d.ErrorSet()
		e.record(ctx, "cancel", caller, id, 0, errs)
		return errs, nil
	}
	if target.Status.Terminal() {
		errs := statusSet(CodeInvalidStatus, "reservation is already finished")
		e.record(ctx, "cancel", caller, id, target.TelescopeID, errs)
		return errs, nil
	}
	if err := e.Reservations.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	e.record(ctx, "cancel", caller, id, target.TelescopeID, nil)
	return nil, nil
}

// Approve confirms a requested reservation onto the calendar.  Staff
// operation: requires an elevated role regardless of the target's shape.
func (e *Engine) Approve(ctx context.Context, caller CallerContext, id uint64) (*ErrorSet, error) {
	return e.review(ctx, "approve", caller, id, StatusScheduled)
}

// Deny rejects a requested reservation.  Denied requests are recorded as
// Cancelled; the owner may submit a fresh request later.
func (e *Engine) Deny(ctx context.Context, caller CallerContext, id uint64) (*ErrorSet, error) {
	return e.review(ctx, "deny", caller, id, StatusCancelled)
}

// review implements approve/deny: target must exist and be Requested.
func (e *Engine) review(ctx context.Context, op string, caller CallerContext, id uint64, to Status) (*ErrorSet, error) {
	if !caller.HasAny(elevated) {
		errs := forbidden(elevated)
		e.record(ctx, op, caller, id, 0, errs)
		return errs, nil
	}
	target, err := e.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		errs := notFound("reservation not found")
		e.record(ctx, op, caller, id, 0, errs)
		return errs, nil
	}
	if target.Status != StatusRequested {
		errs := statusSet(CodeInvalidStatus, "only requested reservations can be reviewed")
		e.record(ctx, op, caller, id, target.TelescopeID, errs)
		return errs, nil
	}
	if err := e.Reservations.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	e.record(ctx, op, caller, id, target.TelescopeID, nil)
	return nil, nil
}

// Start begins a free-control session: the reservation must carry the
// FreeControl variant and currently be Scheduled.
func (e *Engine) Start(ctx context.Context, caller CallerContext, id uint64) (*ErrorSet, error) {
	return e.manual(ctx, "start", caller, id, StatusScheduled, StatusInProgress)
}

// Stop ends a free-control session, completing the reservation.
func (e *Engine) Stop(ctx context.Context, caller CallerContext, id uint64) (*ErrorSet, error) {
	return e.manual(ctx, "stop", caller, id, StatusInProgress, StatusCompleted)
}

// manual implements the start/stop pair.  Both reject reservations that
// are not free-control or not in the expected status.
func (e *Engine) manual(ctx context.Context, op string, caller CallerContext, id uint64, from, to Status) (*ErrorSet, error) {
	target, d, err := e.AuthorizeTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		errs := d.ErrorSet()
		e.record(ctx, op, caller, id, 0, errs)
		return errs, nil
	}
	if target.Variant.Kind != VariantFreeControl {
		errs := statusSet(CodeInvalidVariant, "only free-control reservations support manual start/stop")
		e.record(ctx, op, caller, id, target.TelescopeID, errs)
		return errs, nil
	}
	if target.Status != from {
		errs := statusSet(CodeInvalidStatus, "reservation is not in the expected status")
		e.record(ctx, op, caller, id, target.TelescopeID, errs)
		return errs, nil
	}
	if err := e.Reservations.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	e.record(ctx, op, caller, id, target.TelescopeID, nil)
	return nil, nil
}
