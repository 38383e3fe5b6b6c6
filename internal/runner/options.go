package runner

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/torosent/salvo/internal/metrics"
)

// Selector picks the target of the next request.
type Selector interface {
	Next() string
}

// Caller performs one request against target. It reports every problem
// through the returned outcome.
type Caller interface {
	Call(ctx context.Context, target string) metrics.Outcome
}

// Recorder accepts the outcome of each unit of work. It must be safe for
// concurrent use.
type Recorder interface {
	Record(outcome metrics.Outcome)
}

// Options configure the Runner.
type Options struct {
	Total          int                         // number of requests to dispatch
	Concurrency    int                         // maximum requests in flight
	RatePerSecond  int                         // dispatch pacing (0 means unlimited)
	Gate           Gate                        // optional; defaults to NewGate(Concurrency)
	Selector       Selector                    // required
	Caller         Caller                      // required
	Recorder       Recorder                    // required
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Logger         zerolog.Logger
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Total < 0 {
		o.Total = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Gate == nil {
		o.Gate = NewGate(o.Concurrency)
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
