package orbit

import (
	"math"

	"github.com/groundsegment/sattrack/model"
)

// LookAnglesFrom computes azimuth, elevation and slant range of an
// Earth-fixed satellite position as seen from a ground observer.
//
// The range vector is rotated into the observer's south-east-zenith
// frame; azimuth is measured clockwise from true north.
func LookAnglesFrom(obs model.Observer, satECEF Vec3) model.LookAngles {
	obsECEF := GeodeticToECEF(model.Geodetic{
		LatitudeDeg:  obs.LatitudeDeg,
		LongitudeDeg: obs.LongitudeDeg,
		AltitudeKm:   obs.AltitudeKm,
	})
	rho := satECEF.Sub(obsECEF)

	sinLat, cosLat := math.Sincos(obs.LatitudeDeg * math.Pi / 180.0)
	sinLon, cosLon := math.Sincos(obs.LongitudeDeg * math.Pi / 180.0)

	south := sinLat*cosLon*rho.X + sinLat*sinLon*rho.Y - cosLat*rho.Z
	east := -sinLon*rho.X + cosLon*rho.Y
	zenith := cosLat*cosLon*rho.X + cosLat*sinLon*rho.Y + sinLat*rho.Z

	rng := math.Sqrt(south*south + east*east + zenith*zenith)
	if rng == 0 {
		return model.LookAngles{ElevationDeg: 90.0}
	}

	el := math.Asin(zenith/rng) * 180.0 / math.Pi
	az := math.Atan2(east, -south) * 180.0 / math.Pi
	if az < 0 {
		az += 360.0
	}

	return model.LookAngles{
		AzimuthDeg:   az,
		ElevationDeg: el,
		RangeKm:      rng,
	}
}
