package model

import "time"

// Geodetic is a subpoint on the WGS84 ellipsoid with height above it.
type Geodetic struct {
	LatitudeDeg  float64 // [-90, +90]
	LongitudeDeg float64 // (-180, +180]
	AltitudeKm   float64
}

// PositionFix is one satellite's computed position at an instant.
type PositionFix struct {
	NoradID  int
	Name     string
	At       time.Time
	Subpoint Geodetic

	// Ground speed of the subpoint track, km/s in the rotating frame.
	SpeedKmS float64
}

// LookAngles is the topocentric view of a satellite from a ground observer.
type LookAngles struct {
	AzimuthDeg   float64 // clockwise from true north
	ElevationDeg float64 // above the local horizon
	RangeKm      float64
}

// Observer is a ground station position used for look-angle queries.
type Observer struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
}
