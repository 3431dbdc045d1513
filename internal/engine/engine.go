package engine

import "time"

// Engine wires the collaborator stores into the admission pipeline.  It
// holds no mutable state of its own; every request is handled
// synchronously on the calling goroutine and the backing stores provide
// whatever serialization concurrent admissions need.
type Engine struct {
	Reservations ReservationStore
	Users        UserStore
	Telescopes   TelescopeStore
	Catalog      CatalogStore
	Audit        AuditSink // optional; nil disables audit events

	// Now supplies the clock.  Tests pin it; production leaves it nil
	// and gets time.Now in UTC.
	Now func() time.Time
}

// New constructs an Engine.  The audit sink may be nil.
func New(res ReservationStore, users UserStore, tel TelescopeStore, cat CatalogStore, audit AuditSink) *Engine {
	if res == nil || users == nil || tel == nil || cat == nil {
		panic("nil store passed to engine.New")
	}
	return &Engine{
		Reservations: res,
		Users:        users,
		Telescopes:   tel,
		Catalog:      cat,
		Audit:        audit,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}
