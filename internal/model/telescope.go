package model

import "time"

// Telescope represents a row in the `telescopes` table: one physically
// exclusive instrument that reservations time-share.  The fleet is small
// and maintained by hand; the service never creates telescopes at
// runtime.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique human readable name (e.g. "Dish North").
//  Site      – free-text location of the instrument.
//  Aperture  – description of the dish aperture, informational only.
//  IsActive  – whether the instrument currently accepts reservations.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Telescope struct {
	ID        uint64    // telescopes.id
	Name      string    // telescopes.name
	Site      string    // telescopes.site
	Aperture  string    // telescopes.aperture
	IsActive  bool      // telescopes.is_active
	CreatedAt time.Time // telescopes.created_at
	UpdatedAt time.Time // telescopes.updated_at
}
