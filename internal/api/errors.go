package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groundsegment/sattrack/internal/celestrak"
	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/registry"
)

// ErrInvalidRequest flags client mistakes that never reach the domain
// layers: unreadable JSON, unparseable query parameters, bad IDs.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotConfigured marks endpoints whose optional backing dependency
// (TLE fetcher, live tracker) was not wired at construction.
var ErrNotConfigured = errors.New("not configured")

type errorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the wire shape of one error: a stable machine-readable
// code plus a human-readable message. Batch responses reuse it for
// per-record failures.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForError maps domain errors onto HTTP statuses and codes.
//
// Validation failures are the client's fault (400). A record that
// exists but cannot be propagated or converted is 422: the request was
// fine, the stored element set is not usable at that instant. Upstream
// TLE source trouble surfaces as 502 so callers can distinguish our
// failures from CelesTrak's.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, orbit.ErrMalformedTLE):
		return http.StatusBadRequest, "malformed_tle"
	case errors.Is(err, registry.ErrCatalogNumberMismatch):
		return http.StatusBadRequest, "catalog_number_mismatch"
	case errors.Is(err, registry.ErrSatelliteNotFound),
		errors.Is(err, celestrak.ErrTLENotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrSatelliteExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, orbit.ErrInvalidElements):
		return http.StatusUnprocessableEntity, "invalid_elements"
	case errors.Is(err, orbit.ErrOrbitDecayed):
		return http.StatusUnprocessableEntity, "orbit_decayed"
	case errors.Is(err, orbit.ErrNumericalInstability):
		return http.StatusUnprocessableEntity, "numerical_instability"
	case errors.Is(err, orbit.ErrNoConvergence):
		return http.StatusUnprocessableEntity, "conversion_failed"
	case errors.Is(err, celestrak.ErrSourceUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// errorDetailFor renders err in the same shape batch slots use.
func errorDetailFor(err error) ErrorDetail {
	_, code := statusForError(err)
	return ErrorDetail{Code: code, Message: err.Error()}
}

func writeError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status, code := statusForError(err)
	if log != nil {
		if status >= http.StatusInternalServerError {
			log.Error(ctx, "request failed", logging.Int("status", status), logging.Err(err))
		} else {
			log.Debug(ctx, "request rejected", logging.Int("status", status), logging.Err(err))
		}
	}
	writeJSON(w, status, errorBody{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
