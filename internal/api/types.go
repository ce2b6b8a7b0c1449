package api

import (
	"time"

	"github.com/groundsegment/sattrack/internal/celestrak"
	"github.com/groundsegment/sattrack/model"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/tracker"
)

// Satellite is the wire representation of one catalog record.
type Satellite struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	NoradID      int       `json:"norad_id"`
	TLELine1     string    `json:"tle_line1"`
	TLELine2     string    `json:"tle_line2"`
	TLEUpdatedAt time.Time `json:"tle_updated_at"`
}

// CreateSatelliteRequest is the POST /api/satellites body. NoradID may
// be zero, in which case it is inferred from the TLE.
type CreateSatelliteRequest struct {
	Name     string `json:"name"`
	NoradID  int    `json:"norad_id"`
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// UpdateTLERequest is the PUT /api/satellites/{id}/tle body.
type UpdateTLERequest struct {
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// Position is one computed subpoint.
type Position struct {
	NoradID      int       `json:"norad_id"`
	Name         string    `json:"name"`
	At           time.Time `json:"at"`
	LatitudeDeg  float64   `json:"latitude_deg"`
	LongitudeDeg float64   `json:"longitude_deg"`
	AltitudeKm   float64   `json:"altitude_km"`
	SpeedKmS     float64   `json:"speed_km_s"`
}

// BatchPosition is one slot of a fleet computation: either Position or
// Error is set, never both.
type BatchPosition struct {
	NoradID  int          `json:"norad_id"`
	Name     string       `json:"name"`
	Position *Position    `json:"position,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// BatchPositionsResponse wraps a fleet computation.
type BatchPositionsResponse struct {
	At      time.Time       `json:"at"`
	Results []BatchPosition `json:"results"`
}

// Observer echoes the ground station a look angle was computed for.
type Observer struct {
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"`
	AltitudeKm   float64 `json:"altitude_km"`
}

// LookAngles is the GET lookangles response.
type LookAngles struct {
	NoradID      int       `json:"norad_id"`
	Name         string    `json:"name"`
	At           time.Time `json:"at"`
	AzimuthDeg   float64   `json:"azimuth_deg"`
	ElevationDeg float64   `json:"elevation_deg"`
	RangeKm      float64   `json:"range_km"`
	Observer     Observer  `json:"observer"`
}

// TLEResponse is a fetched element set, returned without storing it.
type TLEResponse struct {
	NoradID int    `json:"norad_id"`
	Name    string `json:"name,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
}

// LiveFrame is one WebSocket message on /api/live.
type LiveFrame struct {
	At      time.Time       `json:"at"`
	Results []BatchPosition `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status     string `json:"status"`
	Satellites int    `json:"satellites"`
}

func satelliteJSON(sat model.Satellite) Satellite {
	return Satellite{
		ID:           sat.ID,
		Name:         sat.Name,
		NoradID:      sat.NoradID,
		TLELine1:     sat.TLELine1,
		TLELine2:     sat.TLELine2,
		TLEUpdatedAt: sat.TLEUpdatedAt,
	}
}

func positionJSON(fix model.PositionFix) Position {
	return Position{
		NoradID:      fix.NoradID,
		Name:         fix.Name,
		At:           fix.At,
		LatitudeDeg:  fix.Subpoint.LatitudeDeg,
		LongitudeDeg: fix.Subpoint.LongitudeDeg,
		AltitudeKm:   fix.Subpoint.AltitudeKm,
		SpeedKmS:     fix.SpeedKmS,
	}
}

func batchPositionJSON(res orbit.PositionResult) BatchPosition {
	slot := BatchPosition{NoradID: res.NoradID, Name: res.Name}
	if res.Err != nil {
		detail := errorDetailFor(res.Err)
		slot.Error = &detail
		return slot
	}
	pos := positionJSON(res.Fix)
	slot.Position = &pos
	return slot
}

func batchPositionsJSON(results []orbit.PositionResult) []BatchPosition {
	out := make([]BatchPosition, len(results))
	for i, res := range results {
		out[i] = batchPositionJSON(res)
	}
	return out
}

func tleJSON(noradID int, rec celestrak.TLE) TLEResponse {
	return TLEResponse{
		NoradID: noradID,
		Name:    rec.Name,
		Line1:   rec.Line1,
		Line2:   rec.Line2,
	}
}

func liveFrameJSON(snap tracker.Snapshot) LiveFrame {
	frame := LiveFrame{
		At:      snap.At,
		Results: batchPositionsJSON(snap.Positions),
	}
	if snap.Err != nil {
		frame.Error = snap.Err.Error()
	}
	return frame
}
