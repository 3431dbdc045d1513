package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// In-memory collaborator fakes used across the engine tests.  They mimic
// the repository contracts closely enough to exercise every pipeline
// branch without a database.

type memUser struct {
	cap  *time.Duration
	role Role
}

type memStores struct {
	mu         sync.Mutex
	nextID     uint64
	store      map[uint64]*Reservation
	users      map[uint64]memUser
	telescopes map[uint64]bool
	bodies     map[uint64]bool // id -> visible
	shares     map[string]bool
	events     []AuditEvent
}

func newMemStores() *memStores {
	return &memStores{
		store:      map[uint64]*Reservation{},
		users:      map[uint64]memUser{},
		telescopes: map[uint64]bool{},
		bodies:     map[uint64]bool{},
		shares:     map[string]bool{},
	}
}

func (m *memStores) addUser(id uint64, role Role, cap *time.Duration) {
	m.users[id] = memUser{cap: cap, role: role}
}

func (m *memStores) addReservation(r Reservation) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.store[r.ID] = &r
	return r.ID
}

// --- ReservationStore ---

func (m *memStores) GetByID(_ context.Context, id uint64) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *memStores) FindOverlapping(_ context.Context, telescopeID uint64, start, end time.Time) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reservation
	for _, r := range m.store {
		if r.TelescopeID == telescopeID && r.Status.Live() && r.Overlaps(start, end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStores) SumLiveDuration(_ context.Context, userID uint64) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, r := range m.store {
		if r.OwnerID == userID && r.Status.Live() {
			total += r.Duration()
		}
	}
	return total, nil
}

func (m *memStores) Create(_ context.Context, r *Reservation) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *r
	cp.ID = m.nextID
	m.store[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memStores) UpdateInPlace(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[r.ID]; !ok {
		return fmt.Errorf("reservation %d: %w", r.ID, ErrNotFound)
	}
	cp := *r
	m.store[cp.ID] = &cp
	return nil
}

func (m *memStores) ReplaceVariant(_ context.Context, oldID uint64, r *Reservation) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[oldID]; !ok {
		return 0, fmt.Errorf("reservation %d: %w", oldID, ErrNotFound)
	}
	delete(m.store, oldID)
	m.nextID++
	cp := *r
	cp.ID = m.nextID
	m.store[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memStores) UpdateStatus(_ context.Context, id uint64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	r.Status = status
	return nil
}

func (m *memStores) HasShare(_ context.Context, reservationID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shares[fmt.Sprintf("%d/%d", reservationID, userID)], nil
}

func (m *memStores) grantShare(reservationID, userID uint64) {
	m.shares[fmt.Sprintf("%d/%d", reservationID, userID)] = true
}

// --- UserStore ---

func (m *memStores) Exists(_ context.Context, id uint64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *memStores) QuotaCap(_ context.Context, id uint64) (*time.Duration, error) {
	return m.users[id].cap, nil
}

func (m *memStores) HighestRole(_ context.Context, id uint64) (Role, error) {
	return m.users[id].role, nil
}

// --- TelescopeStore ---

type memTelescopes struct{ m *memStores }

func (t memTelescopes) Exists(_ context.Context, id uint64) (bool, error) {
	return t.m.telescopes[id], nil
}

// --- CatalogStore ---

type memCatalog struct{ m *memStores }

func (c memCatalog) BodyVisible(_ context.Context, id uint64) (exists, visible bool, err error) {
	v, ok := c.m.bodies[id]
	return ok, v, nil
}

// --- AuditSink ---

type memAudit struct{ m *memStores }

func (a memAudit) Record(_ context.Context, ev AuditEvent) {
	a.m.mu.Lock()
	a.m.events = append(a.m.events, ev)
	a.m.mu.Unlock()
}

// newTestEngine builds an engine over fresh fakes with a pinned clock.
func newTestEngine() (*Engine, *memStores) {
	m := newMemStores()
	e := New(m, m, memTelescopes{m}, memCatalog{m}, nil)
	e.Now = func() time.Time { return testNow }
	return e, m
}

// testNow pins "now" so window validation is deterministic.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// at builds a timestamp h hours after testNow.
func at(h float64) time.Time {
	return testNow.Add(time.Duration(h * float64(time.Hour)))
}
