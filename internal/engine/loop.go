package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
)

// Run drives the engine until ctx is cancelled: the simulation tick on a
// fixed period and the expiry sweep on its cron schedule. Ticks are executed
// from a single goroutine, so a tick that fires while the previous pass is
// still running is dropped rather than run concurrently.
func (e *Engine) Run(ctx context.Context, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(e.params.SweepSchedule, func() { e.Sweep() }); err != nil {
		return fmt.Errorf("engine: sweep schedule %q: %w", e.params.SweepSchedule, err)
	}
	sweeper.Start()
	defer func() { <-sweeper.Stop().Done() }()

	ticker := time.NewTicker(e.params.TickInterval)
	defer ticker.Stop()

	fmt.Fprintf(out, "Engine running (tick every %s, sweep %s)\n", e.params.TickInterval, e.params.SweepSchedule)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "Engine stopped.\n")
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}
