package orbit

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/groundsegment/sattrack/model"
)

// PositionResult is one slot of a batch computation. Exactly one of
// Fix and Err is meaningful: Err nil means Fix holds the position.
type PositionResult struct {
	NoradID int
	Name    string
	Fix     model.PositionFix
	Err     error
}

// EngineMetricsRecorder receives batch outcome totals.
type EngineMetricsRecorder interface {
	ObserveBatch(size, failed int, elapsed time.Duration)
}

// EngineOption customises Engine construction.
type EngineOption func(*Engine)

// WithWorkers fixes the batch worker count. Zero or negative keeps the
// default of min(GOMAXPROCS, batch size).
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithMetricsRecorder attaches an optional recorder for batch totals.
func WithMetricsRecorder(m EngineMetricsRecorder) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine computes geodetic positions for catalog records. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	workers int
	metrics EngineMetricsRecorder
}

// NewEngine creates a position engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputePosition runs the full pipeline for one satellite: validate
// and initialize the element set, propagate, rotate into the
// Earth-fixed frame and convert to a WGS84 subpoint.
func (e *Engine) ComputePosition(ctx context.Context, sat model.Satellite, at time.Time) (model.PositionFix, error) {
	if err := ctx.Err(); err != nil {
		return model.PositionFix{}, err
	}
	at = at.UTC().Truncate(time.Second)
	return computeFix(sat, at, GMST(at))
}

// ComputePositions computes the whole batch concurrently. results[i]
// always corresponds to sats[i]; a record that fails validation,
// propagation or conversion carries its error in its own slot and
// never disturbs the rest of the batch. Cancelling ctx abandons
// records not yet started; their slots carry ctx.Err().
func (e *Engine) ComputePositions(ctx context.Context, sats []model.Satellite, at time.Time) []PositionResult {
	results := make([]PositionResult, len(sats))
	if len(sats) == 0 {
		return results
	}

	at = at.UTC().Truncate(time.Second)
	// One sidereal angle serves the whole batch: every record is
	// evaluated at the same instant.
	gmst := GMST(at)

	start := time.Now()

	jobs := make(chan int, len(sats))
	for i := range sats {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < e.workerCount(len(sats)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := PositionResult{NoradID: sats[i].NoradID, Name: sats[i].Name}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Fix, res.Err = computeFix(sats[i], at, gmst)
				}
				results[i] = res
			}
		}()
	}
	wg.Wait()

	if e.metrics != nil {
		failed := 0
		for i := range results {
			if results[i].Err != nil {
				failed++
			}
		}
		e.metrics.ObserveBatch(len(sats), failed, time.Since(start))
	}
	return results
}

func (e *Engine) workerCount(batch int) int {
	n := e.workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > batch {
		n = batch
	}
	if n < 1 {
		n = 1
	}
	return n
}

// computeFix is the single-record pipeline behind both entry points.
// at must already be truncated to whole UTC seconds and gmst must be
// the sidereal angle for that same instant.
func computeFix(sat model.Satellite, at time.Time, gmst float64) (model.PositionFix, error) {
	prop, err := NewPropagator(sat.TLELine1, sat.TLELine2)
	if err != nil {
		return model.PositionFix{}, err
	}

	posTEME, velTEME, err := prop.PositionTEME(at)
	if err != nil {
		return model.PositionFix{}, err
	}

	posECEF, velECEF := TEMEToECEF(posTEME, velTEME, gmst)
	subpoint, err := ECEFToGeodetic(posECEF)
	if err != nil {
		return model.PositionFix{}, err
	}

	return model.PositionFix{
		NoradID:  sat.NoradID,
		Name:     sat.Name,
		At:       at,
		Subpoint: subpoint,
		SpeedKmS: velECEF.Norm(),
	}, nil
}
