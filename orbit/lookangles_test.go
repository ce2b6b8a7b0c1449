package orbit

import (
	"math"
	"testing"

	"github.com/groundsegment/sattrack/model"
)

func TestLookAnglesOverhead(t *testing.T) {
	obs := model.Observer{LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKm: 0}
	sat := GeodeticToECEF(model.Geodetic{LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKm: 400})

	got := LookAnglesFrom(obs, sat)
	if math.Abs(got.ElevationDeg-90) > 0.01 {
		t.Fatalf("expected elevation ~90 overhead, got %v", got.ElevationDeg)
	}
	if math.Abs(got.RangeKm-400) > 1e-6 {
		t.Fatalf("expected range 400 km, got %v", got.RangeKm)
	}
}

func TestLookAnglesCardinalDirections(t *testing.T) {
	obs := model.Observer{LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKm: 0}

	// Satellite over a point due east of the observer.
	east := GeodeticToECEF(model.Geodetic{LatitudeDeg: 0, LongitudeDeg: 10, AltitudeKm: 500})
	got := LookAnglesFrom(obs, east)
	if math.Abs(got.AzimuthDeg-90) > 1e-6 {
		t.Fatalf("expected azimuth 90 for eastern target, got %v", got.AzimuthDeg)
	}
	if math.Abs(got.ElevationDeg-18.321772193775537) > 1e-6 {
		t.Fatalf("expected elevation 18.3218, got %v", got.ElevationDeg)
	}
	if math.Abs(got.RangeKm-1258.1568416213622) > 1e-6 {
		t.Fatalf("expected range 1258.157 km, got %v", got.RangeKm)
	}

	// Satellite over a point due north.
	north := GeodeticToECEF(model.Geodetic{LatitudeDeg: 10, LongitudeDeg: 0, AltitudeKm: 1000})
	got = LookAnglesFrom(obs, north)
	if math.Abs(got.AzimuthDeg-0) > 1e-6 && math.Abs(got.AzimuthDeg-360) > 1e-6 {
		t.Fatalf("expected azimuth ~0 for northern target, got %v", got.AzimuthDeg)
	}
	if math.Abs(got.ElevationDeg-34.89579204690527) > 1e-6 {
		t.Fatalf("expected elevation 34.8958, got %v", got.ElevationDeg)
	}
}

func TestLookAnglesRangeMatchesDistance(t *testing.T) {
	obs := model.Observer{LatitudeDeg: 47.5, LongitudeDeg: -122.3, AltitudeKm: 0.1}
	sat := Vec3{X: -2500, Y: -4500, Z: 4800}

	obsECEF := GeodeticToECEF(model.Geodetic{
		LatitudeDeg:  obs.LatitudeDeg,
		LongitudeDeg: obs.LongitudeDeg,
		AltitudeKm:   obs.AltitudeKm,
	})
	want := sat.Sub(obsECEF).Norm()

	got := LookAnglesFrom(obs, sat)
	if math.Abs(got.RangeKm-want) > 1e-9 {
		t.Fatalf("expected range %v, got %v", want, got.RangeKm)
	}
}

func TestLookAnglesBelowHorizon(t *testing.T) {
	// A satellite on the far side of the Earth sits below the horizon.
	obs := model.Observer{LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKm: 0}
	far := GeodeticToECEF(model.Geodetic{LatitudeDeg: 0, LongitudeDeg: 180, AltitudeKm: 400})

	got := LookAnglesFrom(obs, far)
	if got.ElevationDeg >= 0 {
		t.Fatalf("expected negative elevation for antipodal target, got %v", got.ElevationDeg)
	}
}
