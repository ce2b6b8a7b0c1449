package orbit

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// OmegaEarthRadS is the Earth rotation rate, radians per second.
const OmegaEarthRadS = 7.292115146706979e-5

// JulianDate returns the Julian date of t. The instant is truncated to
// whole seconds so that sidereal time and the SGP4 entry point, which
// takes integer calendar components, see the same epoch.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC().Truncate(time.Second))
}

// GMST returns Greenwich mean sidereal time at t in radians, [0, 2π).
//
// Uses the IAU-82 polynomial in UT1 centuries from J2000; UTC stands in
// for UT1, which is fine at the sub-arcsecond level this service needs.
func GMST(t time.Time) float64 {
	return gmstFromJD(JulianDate(t))
}

func gmstFromJD(jd float64) float64 {
	tc := (jd - 2451545.0) / 36525.0

	seconds := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*tc +
		0.093104*tc*tc -
		6.2e-6*tc*tc*tc

	rad := math.Mod(seconds, 86400.0) * math.Pi / 43200.0
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
