package model

import "time"

// CelestialBody represents a row in the `celestial_bodies` catalog table.
// Reservations of the celestial-body-tracked variant reference one of
// these entries.  Hidden entries remain in the catalog for existing
// reservations but cannot be referenced by new ones.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – common name (e.g. "Cassiopeia A").
//  Designation – catalog designation (e.g. "3C 461").
//  IsHidden    – moderation flag; hidden bodies are not offered publicly.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type CelestialBody struct {
	ID          uint64    // celestial_bodies.id
	Name        string    // celestial_bodies.name
	Designation string    // celestial_bodies.designation
	IsHidden    bool      // celestial_bodies.is_hidden
	CreatedAt   time.Time // celestial_bodies.created_at
	UpdatedAt   time.Time // celestial_bodies.updated_at
}
