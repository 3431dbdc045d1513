package engine

import (
	"context"
	"time"
)

// admission.go orchestrates per-variant validation, conflict detection
// and quota accounting.  The pipeline distinguishes two failure classes:
// referential failures (an id in the request does not resolve) return
// immediately and alone, while field-constraint failures (time ordering,
// angle ranges, coordinate counts) are accumulated so the caller sees
// every problem at once.  The conflict check runs only after the fields
// pass, and the quota check runs last because it consults aggregate
// state.  On any failure no mutation is observable.

// Request admits a reservation through the baseline flow: the capability
// table is consulted, the admission pipeline runs, and on success the
// reservation is persisted with status Requested, awaiting staff
// approval.  Returns the new id, or a structured error set, or a plain
// error for unexpected store failures.
func (e *Engine) Request(ctx context.Context, caller CallerContext, req AdmissionRequest) (uint64, *ErrorSet, error) {
	return e.admit(ctx, "request", caller, req, StatusRequested)
}

// Create is the privileged direct-create flow: identical admission rules,
// but the reservation lands on the calendar as Scheduled immediately.
// Beyond the capability table, direct creation itself requires an
// elevated role.
func (e *Engine) Create(ctx context.Context, caller CallerContext, req AdmissionRequest) (uint64, *ErrorSet, error) {
	if !caller.HasAny(elevated) {
		errs := forbidden(elevated)
		e.record(ctx, "create", caller, 0, req.TelescopeID, errs)
		return 0, errs, nil
	}
	return e.admit(ctx, "create", caller, req, StatusScheduled)
}

// admit runs the shared authorization + validation pipeline and persists
// the reservation with the given initial status.
func (e *Engine) admit(ctx context.Context, op string, caller CallerContext, req AdmissionRequest, status Status) (uint64, *ErrorSet, error) {
	if d := e.AuthorizeMutation(caller, req); !d.Allowed {
		errs := d.ErrorSet()
		e.record(ctx, op, caller, 0, req.TelescopeID, errs)
		return 0, errs, nil
	}

	if errs, err := e.checkReferences(ctx, req); errs != nil || err != nil {
		if errs != nil {
			e.record(ctx, op, caller, 0, req.TelescopeID, errs)
		}
		return 0, errs, err
	}

	fieldErrs := fieldSet()
	e.validateWindowCreate(fieldErrs, req.Start, req.End)
	req.Variant.validateInto(fieldErrs)
	if !fieldErrs.empty() {
		e.record(ctx, op, caller, 0, req.TelescopeID, fieldErrs)
		return 0, fieldErrs, nil
	}

	conflict, err := e.hasCreateConflict(ctx, req.TelescopeID, req.Start, req.End)
	if err != nil {
		return 0, nil, err
	}
	if conflict {
		errs := conflictSet()
		e.record(ctx, op, caller, 0, req.TelescopeID, errs)
		return 0, errs, nil
	}

	if errs, err := e.checkQuota(ctx, req.OwnerID, req.End.Sub(req.Start), nil); errs != nil || err != nil {
		if errs != nil {
			e.record(ctx, op, caller, 0, req.TelescopeID, errs)
		}
		return 0, errs, err
	}

	id, err := e.Reservations.Create(ctx, req.toReservation(status))
	if err != nil {
		return 0, nil, err
	}
	e.record(ctx, op, caller, id, req.TelescopeID, nil)
	return id, nil, nil
}

// Update re-admits an existing reservation against a new request shape.
// When the variant tag is unchanged the record is mutated in place; when
// it changes, the old record and payload are deleted and a fresh one is
// created, carrying over the original owner and status.  The returned id
// is the surviving reservation's id (a new one after a tag change).
func (e *Engine) Update(ctx context.Context, caller CallerContext, id uint64, req AdmissionRequest) (uint64, *ErrorSet, error) {
	target, err := e.getTarget(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if target == nil {
		errs := notFound("reservation not found")
		e.record(ctx, "update", caller, id, req.TelescopeID, errs)
		return 0, errs, nil
	}
	// The caller must be allowed both against the existing record and
	// against the shape they are changing it into.
	if d := e.AuthorizeMutation(caller, AdmissionRequest{
		TelescopeID: target.TelescopeID,
		OwnerID:     target.OwnerID,
		Public:      target.Public,
		Priority:    target.Priority,
	}); !d.Allowed {
		errs := d.ErrorSet()
		e.record(ctx, "update", caller, id, target.TelescopeID, errs)
		return 0, errs, nil
	}
	req.OwnerID = target.OwnerID // ownership never changes on update
	if d := e.AuthorizeMutation(caller, req); !d.Allowed {
		errs := d.ErrorSet()
		e.record(ctx, "update", caller, id, req.TelescopeID, errs)
		return 0, errs, nil
	}

	if errs, err := e.checkReferences(ctx, req); errs != nil || err != nil {
		if errs != nil {
			e.record(ctx, "update", caller, id, req.TelescopeID, errs)
		}
		return 0, errs, err
	}

	fieldErrs := fieldSet()
	e.validateWindowUpdate(fieldErrs, req.Start, req.End)
	req.Variant.validateInto(fieldErrs)
	if !fieldErrs.empty() {
		e.record(ctx, "update", caller, id, req.TelescopeID, fieldErrs)
		return 0, fieldErrs, nil
	}

	conflict, err := e.hasUpdateConflict(ctx, req.TelescopeID, req.Start, req.End, id)
	if err != nil {
		return 0, nil, err
	}
	if conflict {
		errs := conflictSet()
		e.record(ctx, "update", caller, id, req.TelescopeID, errs)
		return 0, errs, nil
	}

	if errs, err := e.checkQuota(ctx, target.OwnerID, req.End.Sub(req.Start), target); errs != nil || err != nil {
		if errs != nil {
			e.record(ctx, "update", caller, id, req.TelescopeID, errs)
		}
		return 0, errs, err
	}

	if req.Variant.Kind == target.Variant.Kind {
		updated := req.toReservation(target.Status)
		updated.ID = target.ID
		if err := e.Reservations.UpdateInPlace(ctx, updated); err != nil {
			return 0, nil, err
		}
		e.record(ctx, "update", caller, target.ID, req.TelescopeID, nil)
		return target.ID, nil, nil
	}

	// Tag change: payload shapes differ structurally, so the old record
	// and payload are destroyed and a new pair is created, re-applying
	// the captured owner and status.
	replacement := req.toReservation(target.Status)
	newID, err := e.Reservations.ReplaceVariant(ctx, target.ID, replacement)
	if err != nil {
		return 0, nil, err
	}
	e.record(ctx, "update", caller, newID, req.TelescopeID, nil)
	return newID, nil, nil
}

// checkReferences resolves every id carried in the request body.  The
// first miss wins and is returned alone.
func (e *Engine) checkReferences(ctx context.Context, req AdmissionRequest) (*ErrorSet, error) {
	ok, err := e.Users.Exists(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return referential("owner_id", "user does not exist"), nil
	}
	ok, err = e.Telescopes.Exists(ctx, req.TelescopeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return referential("telescope_id", "telescope does not exist"), nil
	}
	if req.Variant.Kind == VariantCelestialBody {
		exists, visible, err := e.Catalog.BodyVisible(ctx, req.Variant.BodyID)
		if err != nil {
			return nil, err
		}
		if !exists || !visible {
			return referential("body_id", "celestial body does not exist"), nil
		}
	}
	return nil, nil
}

// validateWindowCreate checks time ordering for new reservations: the
// window must be strictly in the future and strictly ordered.
func (e *Engine) validateWindowCreate(errs *ErrorSet, start, end time.Time) {
	if !start.Before(end) {
		errs.add("end", CodeTimeOrder, "end must be after start")
	}
	if !start.After(e.now()) {
		errs.add("start", CodeStartInPast, "start must be in the future")
	}
}

// validateWindowUpdate relaxes the future requirement: the new start may
// coincide with now, but never precede it, and end must still follow
// start strictly.
func (e *Engine) validateWindowUpdate(errs *ErrorSet, start, end time.Time) {
	if !start.Before(end) {
		errs.add("end", CodeTimeOrder, "end must be after start")
	}
	if start.Before(e.now()) {
		errs.add("start", CodeStartInPast, "start must not be before now")
	}
}
