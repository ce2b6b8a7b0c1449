package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	router := mux.NewRouter()
	router.Use(collector.Middleware())
	router.HandleFunc("/api/satellites/{id}", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/satellites/42", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/satellites/{id}", "GET", "200")); got != 1 {
		t.Fatalf("api_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "api_request_duration_seconds", map[string]string{
		"route":  "/api/satellites/{id}",
		"method": "GET",
	}); count != 1 {
		t.Fatalf("api_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMiddlewareRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	router := mux.NewRouter()
	router.Use(collector.Middleware())
	router.HandleFunc("/api/satellites/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such satellite", http.StatusNotFound)
	}).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/satellites/9999", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/satellites/{id}", "GET", "404")); got != 1 {
		t.Fatalf("api_requests_total error label = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	api, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	tracking, err := NewTrackingCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackingCollector: %v", err)
	}

	api.SetCatalogCount(12)
	api.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()
	api.HTTPDurations.WithLabelValues("/healthz", "GET").Observe(0.01)
	tracking.ObserveBatch(5, 1, 3*time.Millisecond)
	tracking.ObserveTick(5, 1, 4*time.Millisecond)
	tracking.IncTLEFetch("ok")
	tracking.SetTLECacheHitRatio(0.75)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"api_requests_total",
		"api_request_duration_seconds",
		"catalog_satellites",
		"position_batch_duration_seconds",
		"positions_computed_total",
		"position_failures_total",
		"tracker_tick_duration_seconds",
		"tracker_satellites",
		"tracker_failed_satellites",
		"tle_fetches_total",
		"tle_cache_hit_ratio",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestTrackingCollectorObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackingCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackingCollector: %v", err)
	}

	collector.ObserveBatch(5, 2, 2*time.Millisecond)
	collector.ObserveBatch(3, 0, time.Millisecond)
	if got := testutil.ToFloat64(collector.PositionsComputed); got != 8 {
		t.Fatalf("positions_computed_total = %v, want 8", got)
	}
	if got := testutil.ToFloat64(collector.PositionFailures); got != 2 {
		t.Fatalf("position_failures_total = %v, want 2", got)
	}

	collector.ObserveTick(7, 1, 3*time.Millisecond)
	if got := testutil.ToFloat64(collector.TrackerSatellites); got != 7 {
		t.Fatalf("tracker_satellites = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.TrackerFailures); got != 1 {
		t.Fatalf("tracker_failed_satellites = %v, want 1", got)
	}

	collector.IncTLEFetch("ok")
	collector.IncTLEFetch("ok")
	collector.IncTLEFetch("error")
	if got := testutil.ToFloat64(collector.TLEFetches.WithLabelValues("ok")); got != 2 {
		t.Fatalf("tle_fetches_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.TLEFetches.WithLabelValues("error")); got != 1 {
		t.Fatalf("tle_fetches_total{error} = %v, want 1", got)
	}
}

func TestCacheRatioClamped(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackingCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackingCollector: %v", err)
	}

	collector.SetTLECacheHitRatio(-0.5)
	if got := testutil.ToFloat64(collector.TLECacheRatio); got != 0 {
		t.Fatalf("ratio below zero should clamp to 0, got %v", got)
	}
	collector.SetTLECacheHitRatio(1.5)
	if got := testutil.ToFloat64(collector.TLECacheRatio); got != 1 {
		t.Fatalf("ratio above one should clamp to 1, got %v", got)
	}
}

func TestCollectorsReuseExistingRegistrations(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("first NewAPICollector: %v", err)
	}
	second, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("second NewAPICollector should reuse collectors: %v", err)
	}

	first.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()
	second.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()
	if got := testutil.ToFloat64(first.HTTPRequests.WithLabelValues("/healthz", "GET", "200")); got != 2 {
		t.Fatalf("expected both collectors to share the counter, got %v", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
