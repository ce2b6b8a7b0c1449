package orbit

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Propagation sanity window, kilometres from the geocenter. Anything
// below the surface radius reads as reentry; anything beyond the outer
// bound is not a catalog orbit and reads as model breakdown.
const (
	minOrbitRadiusKm = 6378.137
	maxOrbitRadiusKm = 50000.0
)

// Propagator propagates a single element set with the SGP4 model
// (WGS72 gravity, the upstream default). The zero value is not usable;
// construct with NewPropagator.
type Propagator struct {
	tle TLE
	sat satellite.Satellite
}

// NewPropagator parses, validates and initializes the SGP4 model for
// one element set. Structural problems wrap ErrMalformedTLE; element
// sets the model rejects wrap ErrInvalidElements.
//
// ParseTLE runs first because the library's own line slicing
// terminates the process on unparseable columns.
func NewPropagator(line1, line2 string) (*Propagator, error) {
	tle, err := ParseTLE(line1, line2)
	if err != nil {
		return nil, err
	}
	if tle.MeanMotionRevDay <= 0 {
		return nil, fmt.Errorf("%w: mean motion %v rev/day", ErrInvalidElements, tle.MeanMotionRevDay)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init error %d: %s", ErrInvalidElements, sat.Error, sat.ErrorStr)
	}
	return &Propagator{tle: tle, sat: sat}, nil
}

// TLE returns the parsed element set backing this propagator.
func (p *Propagator) TLE() TLE {
	return p.tle
}

// PositionTEME propagates to the given instant and returns position
// and velocity in the TEME frame (km, km/s). The instant is truncated
// to whole UTC seconds.
//
// The library returns state by value with no error channel, so bad
// output is classified here: a position inside the Earth wraps
// ErrOrbitDecayed, non-finite or absurd output wraps
// ErrNumericalInstability.
func (p *Propagator) PositionTEME(at time.Time) (Vec3, Vec3, error) {
	t := at.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	rawPos, rawVel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	pos := Vec3{X: rawPos.X, Y: rawPos.Y, Z: rawPos.Z}
	vel := Vec3{X: rawVel.X, Y: rawVel.Y, Z: rawVel.Z}

	if !pos.IsFinite() || !vel.IsFinite() {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: catalog %d at %s: non-finite state",
			ErrNumericalInstability, p.tle.CatalogNumber, t.Format(time.RFC3339))
	}
	switch r := pos.Norm(); {
	case r < minOrbitRadiusKm:
		return Vec3{}, Vec3{}, fmt.Errorf("%w: catalog %d at %s: geocentric radius %.1f km",
			ErrOrbitDecayed, p.tle.CatalogNumber, t.Format(time.RFC3339), r)
	case r > maxOrbitRadiusKm:
		return Vec3{}, Vec3{}, fmt.Errorf("%w: catalog %d at %s: geocentric radius %.1f km",
			ErrNumericalInstability, p.tle.CatalogNumber, t.Format(time.RFC3339), r)
	}
	return pos, vel, nil
}
