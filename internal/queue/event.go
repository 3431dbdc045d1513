// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditEvent is published for every admission or lifecycle outcome, both
// admitted and rejected.  It carries enough information for downstream
// consumers to log, alert or feed analytics without querying the primary
// database.
type AuditEvent struct {
	Operation     string   `json:"operation"` // request|create|update|cancel|approve|deny|start|stop
	Outcome       string   `json:"outcome"`   // admitted|rejected
	ActorID       uint64   `json:"actor_id,omitempty"`
	ReservationID uint64   `json:"reservation_id,omitempty"`
	TelescopeID   uint64   `json:"telescope_id,omitempty"`
	ErrorCodes    []string `json:"error_codes,omitempty"`
	At            string   `json:"at"` // RFC3339 UTC
}
