package engine

import "context"

// capability.go is the request-shape-aware authorization layer.  The
// mutation rules live in one declarative table keyed by the request's
// visibility flag and priority class; every mutating entry point consults
// the same table, so the create/request/update paths cannot drift apart.
//
// A missing target short-circuits to a not-found decision before any role
// evaluation, and that outcome is tagged differently from a missing-role
// denial so the boundary can answer 404 instead of 403.

// Decision is the non-persisted capability outcome computed per request.
type Decision struct {
	Allowed  bool
	NotFound bool   // target id did not resolve; checked before roles
	Missing  []Role // when denied: roles any one of which would suffice
}

// allow is the positive decision.
func allow() Decision { return Decision{Allowed: true} }

// denyMissing denies for lack of any of the given roles.
func denyMissing(roles ...Role) Decision { return Decision{Missing: roles} }

// denyNotFound denies because the target does not exist.
func denyNotFound() Decision { return Decision{NotFound: true} }

// ErrorSet translates a denial into the command/result protocol.  Calling
// it on an allowed decision returns nil.
func (d Decision) ErrorSet() *ErrorSet {
	if d.Allowed {
		return nil
	}
	if d.NotFound {
		return notFound("reservation not found")
	}
	return forbidden(d.Missing)
}

// mutationKey indexes the declarative rule table.
type mutationKey struct {
	public   bool
	priority Priority
}

// anyRole is the baseline requirement: any authenticated membership role.
var anyRole = []Role{RoleGuest, RoleMember, RoleResearcher, RoleAdmin}

// elevated may book out of public view.
var elevated = []Role{RoleResearcher, RoleAdmin}

// adminOnly gates manual/override operation of the instrument.
var adminOnly = []Role{RoleAdmin}

// mutationRoles maps (visibility, priority) to the role set required to
// create, request or update a reservation of that shape.
var mutationRoles = map[mutationKey][]Role{
	{public: true, priority: PriorityStandard}:  anyRole,
	{public: false, priority: PriorityStandard}: elevated,
	{public: true, priority: PriorityManual}:    adminOnly,
	{public: false, priority: PriorityManual}:   adminOnly,
}

// AuthorizeMutation decides whether the caller may submit the given
// admission request at all.  The caller must be the stated owner, or an
// admin acting on someone else's behalf; beyond ownership, the rule table
// keyed by the request's visibility and priority applies.
func (e *Engine) AuthorizeMutation(caller CallerContext, req AdmissionRequest) Decision {
	if caller.Anonymous {
		return denyMissing(anyRole...)
	}
	if caller.UserID != req.OwnerID && !caller.HasRole(RoleAdmin) {
		return denyMissing(RoleAdmin)
	}
	required, ok := mutationRoles[mutationKey{public: req.Public, priority: req.Priority}]
	if !ok {
		// Unknown priority classes never authorize; admission would
		// reject the value anyway.
		return denyMissing(adminOnly...)
	}
	if caller.HasAny(required) {
		return allow()
	}
	return denyMissing(required...)
}

// AuthorizeTarget loads the target reservation and decides whether the
// caller may mutate it, using the target's own ownership, visibility and
// priority attributes.  Used by cancel and the variant-agnostic entry of
// update before the new request shape is evaluated.
func (e *Engine) AuthorizeTarget(ctx context.Context, caller CallerContext, id uint64) (*Reservation, Decision, error) {
	target, err := e.getTarget(ctx, id)
	if err != nil {
		return nil, Decision{}, err
	}
	if target == nil {
		return nil, denyNotFound(), nil
	}
	d := e.AuthorizeMutation(caller, AdmissionRequest{
		TelescopeID: target.TelescopeID,
		OwnerID:     target.OwnerID,
		Public:      target.Public,
		Priority:    target.Priority,
	})
	return target, d, nil
}

// CanView applies the retrieval rule: the owner, a sharing beneficiary or
// anyone at all for a public reservation may read it with any membership
// role; otherwise reading requires admin.
func (e *Engine) CanView(ctx context.Context, caller CallerContext, r *Reservation) (Decision, error) {
	if r.Public {
		return allow(), nil
	}
	if caller.Anonymous {
		return denyMissing(adminOnly...), nil
	}
	if caller.UserID == r.OwnerID || caller.HasRole(RoleAdmin) {
		return allow(), nil
	}
	shared, err := e.Reservations.HasShare(ctx, r.ID, caller.UserID)
	if err != nil {
		return Decision{}, err
	}
	if shared {
		return allow(), nil
	}
	return denyMissing(adminOnly...), nil
}

// getTarget fetches a reservation, mapping the store's not-found sentinel
// to a nil reservation so capability code can emit its tagged outcome.
func (e *Engine) getTarget(ctx context.Context, id uint64) (*Reservation, error) {
	r, err := e.Reservations.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}
