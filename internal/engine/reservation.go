package engine

import "time"

// Priority classifies how a reservation competes for the instrument.
// Standard bookings are scheduled in advance; manual bookings put the
// telescope under direct operator control and are admin-gated.
type Priority string

const (
	PriorityStandard Priority = "STANDARD"
	PriorityManual   Priority = "MANUAL"
)

// ValidPriority reports whether p names a known priority class.
func ValidPriority(p Priority) bool {
	return p == PriorityStandard || p == PriorityManual
}

// Status is a reservation's lifecycle state.
type Status string

const (
	StatusRequested  Status = "REQUESTED"   // awaiting staff approval
	StatusScheduled  Status = "SCHEDULED"   // confirmed on the calendar
	StatusInProgress Status = "IN_PROGRESS" // manual session currently running
	StatusCompleted  Status = "COMPLETED"   // terminal
	StatusCancelled  Status = "CANCELLED"   // terminal
)

// Live reports whether the status counts toward conflict detection and
// quota accounting.
func (s Status) Live() bool {
	return s == StatusRequested || s == StatusScheduled || s == StatusInProgress
}

// Terminal reports whether no further transition leaves the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Reservation is the central entity: a booked half-open window [Start,End)
// on one telescope, owned by one user, carrying a variant payload.  The
// invariant enforced by admission is that no two live reservations on the
// same telescope overlap.
type Reservation struct {
	ID          uint64
	TelescopeID uint64
	OwnerID     uint64
	Start       time.Time
	End         time.Time
	Public      bool
	Priority    Priority
	Status      Status
	Variant     Variant
}

// Duration returns the committed window length.
func (r *Reservation) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Overlaps reports whether the reservation's window intersects the
// half-open interval [start,end).  Touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// AdmissionRequest is the variant-carrying command every create/update
// entry point accepts.  OwnerID is the user the reservation is booked
// for; the capability engine decides whether the caller may act for that
// user at all.
type AdmissionRequest struct {
	TelescopeID uint64
	OwnerID     uint64
	Start       time.Time
	End         time.Time
	Public      bool
	Priority    Priority
	Variant     Variant
}

// toReservation materializes a reservation from the request with the
// given initial status.
func (req AdmissionRequest) toReservation(status Status) *Reservation {
	return &Reservation{
		TelescopeID: req.TelescopeID,
		OwnerID:     req.OwnerID,
		Start:       req.Start,
		End:         req.End,
		Public:      req.Public,
		Priority:    req.Priority,
		Status:      status,
		Variant:     req.Variant,
	}
}
