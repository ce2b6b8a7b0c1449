package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackingCollector exposes Prometheus metrics for the position
// pipeline: batch computations, the live tracker loop, and upstream TLE
// fetches. It satisfies both the engine's and the tracker's recorder
// interfaces so one collector serves the whole pipeline.
type TrackingCollector struct {
	gatherer prometheus.Gatherer

	BatchDuration     prometheus.Histogram
	PositionsComputed prometheus.Counter
	PositionFailures  prometheus.Counter

	TickDuration      prometheus.Histogram
	TrackerSatellites prometheus.Gauge
	TrackerFailures   prometheus.Gauge

	TLEFetches    *prometheus.CounterVec
	TLECacheRatio prometheus.Gauge
}

// NewTrackingCollector registers pipeline metrics against the provided registerer.
func NewTrackingCollector(reg prometheus.Registerer) (*TrackingCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	batchHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "position_batch_duration_seconds",
		Help:    "Duration of batch position computations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	batchHistogram, err := registerHistogram(reg, batchHistogram, "position_batch_duration_seconds")
	if err != nil {
		return nil, err
	}

	computed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "positions_computed_total",
		Help: "Cumulative number of satellite position computations attempted.",
	})
	computed, err = registerCounter(reg, computed, "positions_computed_total")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "position_failures_total",
		Help: "Cumulative number of position computations that returned an error.",
	})
	failures, err = registerCounter(reg, failures, "position_failures_total")
	if err != nil {
		return nil, err
	}

	tickHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_tick_duration_seconds",
		Help:    "Duration of live tracker recompute ticks.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	tickHistogram, err = registerHistogram(reg, tickHistogram, "tracker_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	trackedGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_satellites",
		Help: "Number of satellites covered by the latest tracker tick.",
	})
	trackedGauge, err = registerGauge(reg, trackedGauge, "tracker_satellites")
	if err != nil {
		return nil, err
	}

	failingGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_failed_satellites",
		Help: "Number of satellites whose position failed in the latest tracker tick.",
	})
	failingGauge, err = registerGauge(reg, failingGauge, "tracker_failed_satellites")
	if err != nil {
		return nil, err
	}

	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tle_fetches_total",
		Help: "Upstream TLE fetch attempts, labeled by outcome.",
	}, []string{"outcome"})
	fetches, err = registerCounterVec(reg, fetches, "tle_fetches_total")
	if err != nil {
		return nil, err
	}

	cacheRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tle_cache_hit_ratio",
		Help: "Hit ratio for the TLE fetch cache.",
	})
	cacheRatio, err = registerGauge(reg, cacheRatio, "tle_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	return &TrackingCollector{
		gatherer:          gatherer,
		BatchDuration:     batchHistogram,
		PositionsComputed: computed,
		PositionFailures:  failures,
		TickDuration:      tickHistogram,
		TrackerSatellites: trackedGauge,
		TrackerFailures:   failingGauge,
		TLEFetches:        fetches,
		TLECacheRatio:     cacheRatio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *TrackingCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveBatch records one batch computation. Satisfies the engine's
// metrics recorder interface.
func (c *TrackingCollector) ObserveBatch(size, failed int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.BatchDuration != nil {
		c.BatchDuration.Observe(elapsed.Seconds())
	}
	if c.PositionsComputed != nil {
		c.PositionsComputed.Add(float64(size))
	}
	if c.PositionFailures != nil && failed > 0 {
		c.PositionFailures.Add(float64(failed))
	}
}

// ObserveTick records one tracker loop pass. Satisfies the tracker's
// metrics recorder interface.
func (c *TrackingCollector) ObserveTick(satellites, failed int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(elapsed.Seconds())
	}
	if c.TrackerSatellites != nil {
		c.TrackerSatellites.Set(float64(satellites))
	}
	if c.TrackerFailures != nil {
		c.TrackerFailures.Set(float64(failed))
	}
}

// IncTLEFetch counts an upstream fetch attempt by outcome ("ok",
// "not_found", "error", "cache_hit").
func (c *TrackingCollector) IncTLEFetch(outcome string) {
	if c == nil || c.TLEFetches == nil {
		return
	}
	c.TLEFetches.WithLabelValues(outcome).Inc()
}

// SetTLECacheHitRatio sets the fetch cache hit ratio.
func (c *TrackingCollector) SetTLECacheHitRatio(ratio float64) {
	if c == nil || c.TLECacheRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.TLECacheRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
