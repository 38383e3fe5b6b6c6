package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/torosent/salvo/internal/metrics"
)

// Result captures execution summary.
type Result struct {
	Dispatched int64         // units of work started; each recorded exactly one outcome
	Duration   time.Duration // from the first dispatch until every unit finished
	Cancelled  bool          // ctx ended before all units were dispatched
}

// Runner dispatches a fixed number of requests with bounded concurrency.
type Runner struct {
	opt      Options
	inFlight atomic.Int64
}

// New validates opt and returns a Runner.
func New(opt Options) (*Runner, error) {
	switch {
	case opt.Selector == nil:
		return nil, errors.New("runner: selector is required")
	case opt.Caller == nil:
		return nil, errors.New("runner: caller is required")
	case opt.Recorder == nil:
		return nil, errors.New("runner: recorder is required")
	}
	opt.normalize()
	return &Runner{opt: opt}, nil
}

// Run dispatches Total units of work, each admitted through the Gate, and
// returns once all of them have finished. Per-request failures never stop the
// run. If ctx ends, no further units start and in-flight ones are aborted
// through ctx; Run still waits for them before returning.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)

	var (
		group      errgroup.Group
		dispatched int64
		cancelled  bool
	)

	for i := 0; i < r.opt.Total; i++ {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			cancelled = true
			break
		}
		if err := r.opt.Gate.Acquire(ctx); err != nil {
			cancelled = true
			break
		}
		dispatched++
		r.inFlight.Add(1)
		group.Go(func() error {
			r.execute(ctx)
			return nil
		})
	}

	_ = group.Wait()

	if cancelled {
		r.opt.Logger.Warn().
			Int64("dispatched", dispatched).
			Int("total", r.opt.Total).
			Msg("run cancelled before all requests were dispatched")
	}

	return Result{
		Dispatched: dispatched,
		Duration:   time.Since(start),
		Cancelled:  cancelled,
	}
}

// InFlight returns the number of units of work currently running.
func (r *Runner) InFlight() int64 {
	return r.inFlight.Load()
}

func (r *Runner) execute(ctx context.Context) {
	defer r.opt.Gate.Release()
	defer r.inFlight.Add(-1)
	r.opt.Recorder.Record(r.call(ctx))
}

// call runs one request. A panic inside the selector or caller becomes a
// failed outcome so the unit still records exactly once.
func (r *Runner) call(ctx context.Context) (outcome metrics.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("request panicked: %v", p)
			r.opt.Logger.Error().Err(err).Msg("recovered from panic in request")
			outcome = metrics.Failed(0, err)
		}
	}()
	return r.opt.Caller.Call(ctx, r.opt.Selector.Next())
}
