package orbit

import (
	"fmt"
	"math"

	"github.com/groundsegment/sattrack/model"
)

// WGS84 ellipsoid, kilometres.
const (
	wgs84SemiMajorKm = 6378.137
	wgs84Flattening  = 1.0 / 298.257223563
	wgs84Ecc2        = wgs84Flattening * (2.0 - wgs84Flattening)
)

const (
	// geodeticTolRad bounds the latitude update between Bowring
	// iterations; 1e-12 rad is well under a millimetre on the ground.
	geodeticTolRad  = 1e-12
	geodeticMaxIter = 10
)

// ECEFToGeodetic converts an Earth-fixed position to a WGS84 subpoint
// via Bowring's iteration. Near-Earth points converge in two or three
// rounds; if the cap is hit the error wraps ErrNoConvergence rather
// than returning a half-settled latitude.
func ECEFToGeodetic(pos Vec3) (model.Geodetic, error) {
	rxy := math.Hypot(pos.X, pos.Y)

	// Polar axis: latitude is exact, no iteration needed.
	if rxy == 0 {
		alt := math.Abs(pos.Z) - wgs84SemiMajorKm*(1.0-wgs84Flattening)
		lat := 90.0
		if pos.Z < 0 {
			lat = -90.0
		}
		return model.Geodetic{LatitudeDeg: lat, LongitudeDeg: 0, AltitudeKm: alt}, nil
	}

	lon := math.Atan2(pos.Y, pos.X)
	lat := math.Atan2(pos.Z, rxy*(1.0-wgs84Ecc2))

	var alt float64
	converged := false
	for i := 0; i < geodeticMaxIter; i++ {
		sinLat := math.Sin(lat)
		n := wgs84SemiMajorKm / math.Sqrt(1.0-wgs84Ecc2*sinLat*sinLat)
		alt = rxy/math.Cos(lat) - n

		next := math.Atan2(pos.Z, rxy*(1.0-wgs84Ecc2*n/(n+alt)))
		done := math.Abs(next-lat) < geodeticTolRad
		lat = next
		if done {
			converged = true
			break
		}
	}
	if !converged {
		return model.Geodetic{}, fmt.Errorf("%w: ECEF (%.3f, %.3f, %.3f) km after %d iterations",
			ErrNoConvergence, pos.X, pos.Y, pos.Z, geodeticMaxIter)
	}

	return model.Geodetic{
		LatitudeDeg:  lat * 180.0 / math.Pi,
		LongitudeDeg: normalizeLonDeg(lon * 180.0 / math.Pi),
		AltitudeKm:   alt,
	}, nil
}

// GeodeticToECEF is the closed-form forward conversion.
func GeodeticToECEF(g model.Geodetic) Vec3 {
	lat := g.LatitudeDeg * math.Pi / 180.0
	lon := g.LongitudeDeg * math.Pi / 180.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := wgs84SemiMajorKm / math.Sqrt(1.0-wgs84Ecc2*sinLat*sinLat)

	return Vec3{
		X: (n + g.AltitudeKm) * cosLat * cosLon,
		Y: (n + g.AltitudeKm) * cosLat * sinLon,
		Z: (n*(1.0-wgs84Ecc2) + g.AltitudeKm) * sinLat,
	}
}

// normalizeLonDeg maps a longitude to (-180, +180].
func normalizeLonDeg(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon > 180.0 {
		lon -= 360.0
	} else if lon <= -180.0 {
		lon += 360.0
	}
	return lon
}
