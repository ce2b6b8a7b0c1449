// Package api exposes the satellite catalog and position pipeline over
// HTTP: REST endpoints for catalog management and position queries,
// plus a WebSocket stream of live tracker snapshots.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/groundsegment/sattrack/internal/celestrak"
	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/internal/observability"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/registry"
	"github.com/groundsegment/sattrack/tracker"
)

// Option customises Server construction.
type Option func(*Server)

// WithTracker enables the /api/live stream, fed by the given tracker.
func WithTracker(trk *tracker.Tracker) Option {
	return func(s *Server) {
		s.trk = trk
	}
}

// WithFetcher enables the CelesTrak-backed endpoints.
func WithFetcher(client *celestrak.Client) Option {
	return func(s *Server) {
		s.fetcher = client
	}
}

// WithMetrics installs per-route Prometheus instrumentation.
func WithMetrics(collector *observability.APICollector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// Server holds the handler dependencies. Construct with NewServer and
// mount Router on an http.Server.
type Server struct {
	store   *registry.Store
	engine  *orbit.Engine
	trk     *tracker.Tracker
	fetcher *celestrak.Client
	metrics *observability.APICollector
	log     logging.Logger

	upgrader websocket.Upgrader
}

// NewServer wires the REST surface to the catalog store and position
// engine. The tracker and fetcher are optional; endpoints backed by a
// missing dependency respond with 503.
func NewServer(store *registry.Store, engine *orbit.Engine, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		store:  store,
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the full route table. The fixed /api/satellites/positions
// path is registered before the {id} routes; the numeric constraint on
// {id} keeps the two from ever overlapping.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestContext)
	r.Use(s.tracingMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/satellites", s.handleCreateSatellite).Methods(http.MethodPost)
	apiRouter.HandleFunc("/satellites", s.handleListSatellites).Methods(http.MethodGet)
	apiRouter.HandleFunc("/satellites/positions", s.handleBatchPositions).Methods(http.MethodGet)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}", s.handleGetSatellite).Methods(http.MethodGet)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}", s.handleDeleteSatellite).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}/tle", s.handleUpdateTLE).Methods(http.MethodPut)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}/tle/refresh", s.handleRefreshTLE).Methods(http.MethodPost)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}/position", s.handlePosition).Methods(http.MethodGet)
	apiRouter.HandleFunc("/satellites/{id:[0-9]+}/lookangles", s.handleLookAngles).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tle/{norad:[0-9]+}", s.handleFetchTLE).Methods(http.MethodGet)
	apiRouter.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)

	return r
}
