package main

import (
	"context"
	"time"
)

// Poller blocks until the target action control is available and the queue
// gate is clear. By design it has no timeout: a sale can open at any moment,
// so the loop runs until success or external cancellation.
//
// Each tick does exactly one gate check and, if clear, one resolution probe.
// Nothing else happens on the hot path; the moment the control shows up the
// engine must already be moving.
type Poller struct {
	Interval time.Duration

	// Gated reports whether the current location is a holding state.
	Gated func() bool
	// OnGated emits throttled queue status; optional.
	OnGated func()
	// Probe performs one non-blocking resolution attempt and captures the
	// result at the call site. It reports whether the control was found.
	Probe func() bool

	Log *Logger
}

const pollProgressEvery = 30 * time.Second

// Wait runs the poll loop. It returns nil once Probe succeeds on an ungated
// tick, or the context error on cancellation.
func (p *Poller) Wait(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticks := 0
	lastProgress := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ticks++

		if p.Gated != nil && p.Gated() {
			if p.OnGated != nil {
				p.OnGated()
			}
		} else if p.Probe() {
			return nil
		}

		if p.Log != nil && time.Since(lastProgress) >= pollProgressEvery {
			p.Log.Infof("Still waiting for sale to open (%d checks so far)", ticks)
			lastProgress = time.Now()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
