package engine

// variant.go models the reservation's targeting payload as an explicit
// tagged union.  Each kind carries its own payload shape: a single sky
// coordinate, a fixed-length coordinate list, an orientation pair or a
// catalog reference.  Payload records belong exclusively to the one
// reservation that references them and are destroyed with it.

// VariantKind tags a reservation's targeting payload.
type VariantKind string

const (
	VariantPoint         VariantKind = "POINT"          // single tracked sky coordinate
	VariantDriftScan     VariantKind = "DRIFT_SCAN"     // fixed orientation, sky drifts through
	VariantRasterScan    VariantKind = "RASTER_SCAN"    // sweep between a fixed list of coordinates
	VariantCelestialBody VariantKind = "CELESTIAL_BODY" // track a catalog entry
	VariantFreeControl   VariantKind = "FREE_CONTROL"   // manual operation from an initial orientation
)

// RasterPointCount is the number of coordinates a raster scan sweeps
// between.  The scan pattern is a fixed two-point sweep.
const RasterPointCount = 2

// ValidKind reports whether k names a known variant tag.
func ValidKind(k VariantKind) bool {
	switch k {
	case VariantPoint, VariantDriftScan, VariantRasterScan, VariantCelestialBody, VariantFreeControl:
		return true
	}
	return false
}

// SkyCoordinate is an equatorial target.  Right ascension is stored as
// hour/minute/second components and derived on demand; it is never
// supplied directly as a single number.
type SkyCoordinate struct {
	RAHours     int     `json:"ra_hours"`    // [0,24)
	RAMinutes   int     `json:"ra_minutes"`  // [0,60)
	RASeconds   float64 `json:"ra_seconds"`  // [0,60)
	Declination float64 `json:"declination"` // [-90,90] degrees
}

// RightAscension derives the right ascension in decimal hours from the
// stored components.
func (c SkyCoordinate) RightAscension() float64 {
	return float64(c.RAHours) + float64(c.RAMinutes)/60 + c.RASeconds/3600
}

// Orientation is a horizontal pointing: azimuth in degrees clockwise from
// north, elevation in degrees above the horizon.
type Orientation struct {
	Azimuth   float64 `json:"azimuth"`   // [0,360)
	Elevation float64 `json:"elevation"` // [0,90]
}

// Variant is the tagged union of targeting payloads.  Exactly the fields
// belonging to Kind are meaningful; the rest stay zero.  Payload fields
// are not migrated between kinds — a tag change replaces the whole
// payload (see ReplaceVariant on the reservation store).
type Variant struct {
	Kind        VariantKind     `json:"kind"`
	Coordinates []SkyCoordinate `json:"coordinates,omitempty"` // POINT: one, RASTER_SCAN: RasterPointCount
	Orientation *Orientation    `json:"orientation,omitempty"` // DRIFT_SCAN, FREE_CONTROL
	BodyID      uint64          `json:"body_id,omitempty"`     // CELESTIAL_BODY
}

// PointVariant builds a point-target payload.
func PointVariant(c SkyCoordinate) Variant {
	return Variant{Kind: VariantPoint, Coordinates: []SkyCoordinate{c}}
}

// RasterScanVariant builds a raster-scan payload over the given sweep
// coordinates.  Count validation happens at admission time.
func RasterScanVariant(coords []SkyCoordinate) Variant {
	return Variant{Kind: VariantRasterScan, Coordinates: coords}
}

// DriftScanVariant builds a drift-scan payload at a fixed orientation.
func DriftScanVariant(o Orientation) Variant {
	return Variant{Kind: VariantDriftScan, Orientation: &o}
}

// FreeControlVariant builds a manual-operation payload with the initial
// orientation the operator starts from.
func FreeControlVariant(o Orientation) Variant {
	return Variant{Kind: VariantFreeControl, Orientation: &o}
}

// BodyVariant builds a celestial-body tracking payload.
func BodyVariant(bodyID uint64) Variant {
	return Variant{Kind: VariantCelestialBody, BodyID: bodyID}
}

// validateInto range-checks the variant payload, appending one entry per
// violated constraint so the caller sees every problem at once.
// Referential existence of a celestial body is not checked here; that is
// the admission validator's referential phase.
func (v Variant) validateInto(errs *ErrorSet) {
	if !ValidKind(v.Kind) {
		errs.add("variant", CodeInvalidVariant, "unknown variant kind")
		return
	}
	switch v.Kind {
	case VariantPoint:
		if len(v.Coordinates) != 1 {
			errs.add("coordinates", CodeCoordinateCount, "point target requires exactly one coordinate")
			return
		}
		validateCoordinateInto(errs, "coordinates[0]", v.Coordinates[0])
	case VariantRasterScan:
		if len(v.Coordinates) != RasterPointCount {
			errs.add("coordinates", CodeCoordinateCount, "raster scan requires exactly two coordinates")
			return
		}
		validateCoordinateInto(errs, "coordinates[0]", v.Coordinates[0])
		validateCoordinateInto(errs, "coordinates[1]", v.Coordinates[1])
	case VariantDriftScan, VariantFreeControl:
		if v.Orientation == nil {
			errs.add("orientation", CodeInvalidVariant, "orientation is required")
			return
		}
		validateOrientationInto(errs, *v.Orientation)
	case VariantCelestialBody:
		if v.BodyID == 0 {
			errs.add("body_id", CodeInvalidVariant, "body_id is required")
		}
	}
}

// validateCoordinateInto checks right-ascension components and
// declination against their astronomical ranges.
func validateCoordinateInto(errs *ErrorSet, field string, c SkyCoordinate) {
	if c.RAHours < 0 || c.RAHours >= 24 {
		errs.add(field+".ra_hours", CodeOutOfRange, "right ascension hours must be in [0,24)")
	}
	if c.RAMinutes < 0 || c.RAMinutes >= 60 {
		errs.add(field+".ra_minutes", CodeOutOfRange, "right ascension minutes must be in [0,60)")
	}
	if c.RASeconds < 0 || c.RASeconds >= 60 {
		errs.add(field+".ra_seconds", CodeOutOfRange, "right ascension seconds must be in [0,60)")
	}
	if c.Declination < -90 || c.Declination > 90 {
		errs.add(field+".declination", CodeOutOfRange, "declination must be in [-90,90]")
	}
}

// validateOrientationInto checks the azimuth/elevation pair.
func validateOrientationInto(errs *ErrorSet, o Orientation) {
	if o.Azimuth < 0 || o.Azimuth >= 360 {
		errs.add("orientation.azimuth", CodeOutOfRange, "azimuth must be in [0,360)")
	}
	if o.Elevation < 0 || o.Elevation > 90 {
		errs.add("orientation.elevation", CodeOutOfRange, "elevation must be in [0,90]")
	}
}
