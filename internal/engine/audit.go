package engine

import (
	"context"
	"time"
)

// AuditEvent describes one admission or lifecycle outcome.  Events are
// handed to the configured sink after the store mutation (or the
// rejection) is final; the sink is fire-and-forget and its failures are
// invisible to the caller.
type AuditEvent struct {
	Operation     string    `json:"operation"` // request|create|update|cancel|approve|deny|start|stop
	Outcome       string    `json:"outcome"`   // admitted|rejected
	ActorID       uint64    `json:"actor_id,omitempty"`
	ReservationID uint64    `json:"reservation_id,omitempty"`
	TelescopeID   uint64    `json:"telescope_id,omitempty"`
	ErrorCodes    []string  `json:"error_codes,omitempty"`
	At            time.Time `json:"at"`
}

// record emits an audit event when a sink is configured.
func (e *Engine) record(ctx context.Context, op string, caller CallerContext, reservationID, telescopeID uint64, errs *ErrorSet) {
	if e.Audit == nil {
		return
	}
	ev := AuditEvent{
		Operation:     op,
		Outcome:       "admitted",
		ReservationID: reservationID,
		TelescopeID:   telescopeID,
		At:            e.now(),
	}
	if !caller.Anonymous {
		ev.ActorID = caller.UserID
	}
	if errs != nil {
		ev.Outcome = "rejected"
		ev.ErrorCodes = errs.Codes()
	}
	e.Audit.Record(ctx, ev)
}
