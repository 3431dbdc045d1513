package engine

// caller.go defines the explicit caller context handed to every
// authorization and admission entry point.  The engine never consults
// ambient security state; the transport layer resolves the caller once
// (from the JWT middleware) and passes the resulting value down.

// Role names a membership tier held by a user.  Roles are stored on the
// users table and embedded into access tokens as the "role" claim.
type Role string

const (
	RoleGuest      Role = "GUEST"      // baseline, unverified tier
	RoleMember     Role = "MEMBER"     // verified member
	RoleResearcher Role = "RESEARCHER" // elevated tier, may book privately
	RoleAdmin      Role = "ADMIN"      // operations staff
)

// roleRank orders roles from weakest to strongest.  It is used to resolve
// a user's highest membership tier for quota defaults.
var roleRank = map[Role]int{
	RoleGuest:      1,
	RoleMember:     2,
	RoleResearcher: 3,
	RoleAdmin:      4,
}

// ValidRole reports whether r names a recognized membership role.
func ValidRole(r Role) bool {
	_, ok := roleRank[r]
	return ok
}

// CallerContext identifies the requester for the duration of one call.
// Anonymous is a valid state: capability decisions treat an anonymous
// caller as holding no roles at all.
type CallerContext struct {
	UserID    uint64 // resolved user id; meaningless when Anonymous
	Anonymous bool   // true when no authenticated identity is present
	Roles     []Role // roles currently held by the caller
}

// AnonymousCaller returns a CallerContext for an unauthenticated caller.
func AnonymousCaller() CallerContext {
	return CallerContext{Anonymous: true}
}

// Caller builds a CallerContext for an authenticated user.
func Caller(userID uint64, roles ...Role) CallerContext {
	return CallerContext{UserID: userID, Roles: roles}
}

// HasRole reports whether the caller holds the given role.
func (c CallerContext) HasRole(r Role) bool {
	if c.Anonymous {
		return false
	}
	for _, held := range c.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// HasAny reports whether the caller holds at least one of the given roles.
func (c CallerContext) HasAny(roles []Role) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
