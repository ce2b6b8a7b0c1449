package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/model"
	"github.com/groundsegment/sattrack/orbit"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.store.Count(ctx)
	if err != nil {
		writeError(ctx, w, s.requestLogger(r), err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Satellites: n})
}

func (s *Server) handleCreateSatellite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	var req CreateSatelliteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, log, err)
		return
	}
	if req.Name == "" {
		writeError(ctx, w, log, fmt.Errorf("%w: name is required", ErrInvalidRequest))
		return
	}

	sat, err := s.store.Create(ctx, model.Satellite{
		Name:     req.Name,
		NoradID:  req.NoradID,
		TLELine1: req.TLELine1,
		TLELine2: req.TLELine2,
	})
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	log.Info(ctx, "satellite created",
		logging.Int64("id", sat.ID),
		logging.Int("norad_id", sat.NoradID),
		logging.String("name", sat.Name),
	)
	writeJSON(w, http.StatusCreated, satelliteJSON(sat))
}

func (s *Server) handleListSatellites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sats, err := s.store.List(ctx)
	if err != nil {
		writeError(ctx, w, s.requestLogger(r), err)
		return
	}
	out := make([]Satellite, len(sats))
	for i, sat := range sats {
		out[i] = satelliteJSON(sat)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSatellite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	sat, err := s.store.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, satelliteJSON(sat))
}

func (s *Server) handleDeleteSatellite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	if err := s.store.Delete(ctx, id); err != nil {
		writeError(ctx, w, log, err)
		return
	}
	log.Info(ctx, "satellite deleted", logging.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateTLE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	var req UpdateTLERequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, log, err)
		return
	}
	sat, err := s.store.UpdateTLE(ctx, id, req.TLELine1, req.TLELine2)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	log.Info(ctx, "element set updated", logging.Int64("id", id), logging.Int("norad_id", sat.NoradID))
	writeJSON(w, http.StatusOK, satelliteJSON(sat))
}

// handleRefreshTLE pulls the freshest element set for a stored
// satellite from the upstream source and persists it.
func (s *Server) handleRefreshTLE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	if s.fetcher == nil {
		writeError(ctx, w, log, fmt.Errorf("%w: no TLE source", ErrNotConfigured))
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	sat, err := s.store.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	rec, err := s.fetcher.FetchTLE(ctx, sat.NoradID)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	updated, err := s.store.UpdateTLE(ctx, id, rec.Line1, rec.Line2)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	log.Info(ctx, "element set refreshed", logging.Int64("id", id), logging.Int("norad_id", updated.NoradID))
	writeJSON(w, http.StatusOK, satelliteJSON(updated))
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	at, err := timeParam(r, "at")
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	sat, err := s.store.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	fix, err := s.engine.ComputePosition(ctx, sat, at)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, positionJSON(fix))
}

// handleBatchPositions computes the whole catalog at one instant.
// Records that fail carry their error in their own slot; the response
// is 200 as long as the catalog itself could be listed.
func (s *Server) handleBatchPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	at, err := timeParam(r, "at")
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	at = at.UTC().Truncate(time.Second)

	sats, err := s.store.List(ctx)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	results := s.engine.ComputePositions(ctx, sats, at)
	writeJSON(w, http.StatusOK, BatchPositionsResponse{
		At:      at,
		Results: batchPositionsJSON(results),
	})
}

func (s *Server) handleLookAngles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	obs, err := observerParams(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	at, err := timeParam(r, "at")
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	at = at.UTC().Truncate(time.Second)

	sat, err := s.store.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	prop, err := orbit.NewPropagator(sat.TLELine1, sat.TLELine2)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	pos, vel, err := prop.PositionTEME(at)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	ecef, _ := orbit.TEMEToECEF(pos, vel, orbit.GMST(at))
	la := orbit.LookAnglesFrom(obs, ecef)

	writeJSON(w, http.StatusOK, LookAngles{
		NoradID:      sat.NoradID,
		Name:         sat.Name,
		At:           at,
		AzimuthDeg:   la.AzimuthDeg,
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
		Observer: Observer{
			LatitudeDeg:  obs.LatitudeDeg,
			LongitudeDeg: obs.LongitudeDeg,
			AltitudeKm:   obs.AltitudeKm,
		},
	})
}

// handleFetchTLE returns an upstream element set without touching the
// catalog.
func (s *Server) handleFetchTLE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	if s.fetcher == nil {
		writeError(ctx, w, log, fmt.Errorf("%w: no TLE source", ErrNotConfigured))
		return
	}
	noradID, err := pathNorad(r)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	rec, err := s.fetcher.FetchTLE(ctx, noradID)
	if err != nil {
		writeError(ctx, w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, tleJSON(noradID, rec))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", ErrInvalidRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: satellite id %q", ErrInvalidRequest, raw)
	}
	return id, nil
}

func pathNorad(r *http.Request) (int, error) {
	raw := mux.Vars(r)["norad"]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: catalog number %q", ErrInvalidRequest, raw)
	}
	return n, nil
}

// timeParam reads an RFC 3339 query parameter, defaulting to now.
func timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, name, err)
	}
	return at.UTC(), nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing query parameter %q", ErrInvalidRequest, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, name, err)
	}
	return v, nil
}

func observerParams(r *http.Request) (model.Observer, error) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		return model.Observer{}, err
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		return model.Observer{}, err
	}
	var alt float64
	if r.URL.Query().Get("alt") != "" {
		if alt, err = floatParam(r, "alt"); err != nil {
			return model.Observer{}, err
		}
	}
	if lat < -90 || lat > 90 {
		return model.Observer{}, fmt.Errorf("%w: lat %v out of [-90, 90]", ErrInvalidRequest, lat)
	}
	if lon < -180 || lon > 180 {
		return model.Observer{}, fmt.Errorf("%w: lon %v out of [-180, 180]", ErrInvalidRequest, lon)
	}
	return model.Observer{LatitudeDeg: lat, LongitudeDeg: lon, AltitudeKm: alt}, nil
}
