package pipeline

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"plate-tracker/internal/timeutil"

	"gocv.io/x/gocv"
)

// FrameSource hands out the newest prepared frame, if any. The caller owns
// and closes the returned Mat.
type FrameSource interface {
	Take() (gocv.Mat, bool)
}

// Runner drives a Pipeline at a fixed period on a single goroutine.
type Runner struct {
	pipeline *Pipeline
	frames   FrameSource
	clock    timeutil.Clock
	period   time.Duration

	ticks   atomic.Uint64
	skipped atomic.Uint64
}

// NewRunner creates a runner that ticks p every period.
func NewRunner(p *Pipeline, frames FrameSource, clock timeutil.Clock, period time.Duration) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Runner{pipeline: p, frames: frames, clock: clock, period: period}
}

// Run ticks until ctx is cancelled. A tick in progress always completes.
func (r *Runner) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			r.step(now)
		}
	}
}

func (r *Runner) step(now time.Time) {
	frame, ok := r.frames.Take()
	if !ok {
		r.skipped.Add(1)
		return
	}
	defer frame.Close()

	res, err := r.pipeline.Tick(frame, now)
	if err != nil {
		r.skipped.Add(1)
		if !errors.Is(err, ErrNoFrame) {
			log.Printf("Pipeline: tick failed: %v", err)
		}
		return
	}
	res.Close()
	r.ticks.Add(1)
}

// Ticks returns the number of processed ticks.
func (r *Runner) Ticks() uint64 {
	return r.ticks.Load()
}

// Skipped returns the number of ticks skipped for lack of a frame.
func (r *Runner) Skipped() uint64 {
	return r.skipped.Load()
}
