// Package engine implements the reservation admission and authorization
// core: interval conflict detection, quota accounting, the reservation
// variant lifecycle and the capability decision table.  It is pure
// domain logic; persistence and identity resolution are supplied through
// the collaborator interfaces in stores.go, and the HTTP layer in
// internal/handler is only a thin translation around it.
package engine

import (
	"errors"
	"strings"
)

// ErrNotFound is the sentinel stores must return (or wrap) when a lookup
// by id matches no row.  The engine converts it into a not-found ErrorSet
// so handlers can answer 404 instead of 500.
var ErrNotFound = errors.New("not found")

// isNotFound reports whether a store error is the not-found sentinel.
func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Kind classifies an ErrorSet so the boundary layer can map it onto an
// HTTP status without inspecting individual codes.  The distinction
// between KindReferential/KindNotFound ("not found") and
// KindAuthorization ("forbidden") is load-bearing: automated clients
// react differently to the two.
type Kind int

const (
	// KindReferential: an id referenced inside the request body does not
	// resolve.  Always fatal to the call and returned alone.
	KindReferential Kind = iota + 1
	// KindField: a value is outside its allowed range or malformed.
	// Multiple field errors are accumulated into one set.
	KindField
	// KindQuota: the user's time allowance is exceeded or their service
	// tier cannot be resolved.  Evaluated last.
	KindQuota
	// KindConflict: the proposed window overlaps a live reservation.
	KindConflict
	// KindAuthorization: the caller lacks every role that would permit
	// the operation.
	KindAuthorization
	// KindNotFound: the operation's target id does not exist.  Checked
	// before any role evaluation.
	KindNotFound
)

// Error codes carried by ErrorSet entries.  ALLOTTED_TIME and
// CATEGORY_OF_SERVICE are the quota ledger's two distinct failures:
// exceeding a cap versus not resolving to any service tier at all.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeTimeOrder         = "TIME_ORDER"
	CodeStartInPast       = "START_IN_PAST"
	CodeOutOfRange        = "OUT_OF_RANGE"
	CodeCoordinateCount   = "COORDINATE_COUNT"
	CodeWindowConflict    = "WINDOW_CONFLICT"
	CodeAllottedTime      = "ALLOTTED_TIME"
	CodeCategoryOfService = "CATEGORY_OF_SERVICE"
	CodeMissingRole       = "MISSING_ROLE"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidVariant    = "INVALID_VARIANT"
)

// Entry is one structured error: the field it concerns (empty for
// call-level failures), a stable machine-readable code and a
// human-readable message.
type Entry struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorSet is the failure half of the command/result protocol.  Every
// admission or authorization entry point returns either an id and a nil
// set, or a zero id and a non-nil set; no partial mutation is ever
// observable alongside a non-nil set.
type ErrorSet struct {
	Kind    Kind    `json:"-"`
	Entries []Entry `json:"errors"`
}

// Error implements the error interface by joining entry codes.
func (e *ErrorSet) Error() string {
	codes := make([]string, 0, len(e.Entries))
	for _, en := range e.Entries {
		codes = append(codes, en.Code)
	}
	return strings.Join(codes, ",")
}

// Codes returns the entry codes in order, for audit events and tests.
func (e *ErrorSet) Codes() []string {
	out := make([]string, 0, len(e.Entries))
	for _, en := range e.Entries {
		out = append(out, en.Code)
	}
	return out
}

// add appends a field-level entry and returns the set for chaining.
func (e *ErrorSet) add(field, code, message string) *ErrorSet {
	e.Entries = append(e.Entries, Entry{Field: field, Code: code, Message: message})
	return e
}

// empty reports whether no entries have been accumulated.
func (e *ErrorSet) empty() bool { return len(e.Entries) == 0 }

// fieldSet starts an empty accumulating set for field-constraint errors.
func fieldSet() *ErrorSet { return &ErrorSet{Kind: KindField} }

// referential builds the single-entry set returned when an id inside the
// request body does not resolve.
func referential(field, message string) *ErrorSet {
	return &ErrorSet{Kind: KindReferential, Entries: []Entry{{Field: field, Code: CodeNotFound, Message: message}}}
}

// notFound builds the set returned when the operation's target is absent.
func notFound(message string) *ErrorSet {
	return &ErrorSet{Kind: KindNotFound, Entries: []Entry{{Code: CodeNotFound, Message: message}}}
}

// forbidden builds an authorization set naming the roles any one of which
// would have permitted the operation.
func forbidden(missing []Role) *ErrorSet {
	names := make([]string, 0, len(missing))
	for _, r := range missing {
		names = append(names, string(r))
	}
	return &ErrorSet{Kind: KindAuthorization, Entries: []Entry{{
		Code:    CodeMissingRole,
		Message: "requires one of roles: " + strings.Join(names, ", "),
	}}}
}

// conflictSet builds the set returned when the window overlaps a live
// reservation on the same telescope.
func conflictSet() *ErrorSet {
	return &ErrorSet{Kind: KindConflict, Entries: []Entry{{
		Code:    CodeWindowConflict,
		Message: "window overlaps an existing reservation on this telescope",
	}}}
}

// quotaSet builds a single-entry quota failure with the given code.
func quotaSet(code, message string) *ErrorSet {
	return &ErrorSet{Kind: KindQuota, Entries: []Entry{{Code: code, Message: message}}}
}

// statusSet builds the set returned when a lifecycle transition is
// attempted from the wrong status or on the wrong variant.
func statusSet(code, message string) *ErrorSet {
	return &ErrorSet{Kind: KindField, Entries: []Entry{{Field: "status", Code: code, Message: message}}}
}
