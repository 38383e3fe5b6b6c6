package runner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/runner"
)

type fixedSelector string

func (s fixedSelector) Next() string { return string(s) }

// fakeCaller simulates a request with fixed latency and tracks concurrency.
type fakeCaller struct {
	latency   time.Duration
	failEvery int64
	panicOn   int64

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeCaller) Call(ctx context.Context, target string) metrics.Outcome {
	n := f.calls.Add(1)
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxInFlight.Load()
		if current <= seen || f.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	if f.panicOn > 0 && n%f.panicOn == 0 {
		panic("boom")
	}

	start := time.Now()
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return metrics.Failed(0, ctx.Err())
		}
	}
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return metrics.Failed(500, nil)
	}
	return metrics.Succeeded(time.Since(start))
}

// instrumentedGate wraps a real gate and records the maximum number of holders.
type instrumentedGate struct {
	inner   runner.Gate
	holders atomic.Int64
	max     atomic.Int64
	leaks   atomic.Int64
}

func (g *instrumentedGate) Acquire(ctx context.Context) error {
	if err := g.inner.Acquire(ctx); err != nil {
		return err
	}
	current := g.holders.Add(1)
	for {
		seen := g.max.Load()
		if current <= seen || g.max.CompareAndSwap(seen, current) {
			break
		}
	}
	return nil
}

func (g *instrumentedGate) Release() {
	if g.holders.Add(-1) < 0 {
		g.leaks.Add(1)
	}
	g.inner.Release()
}

func newRunner(t *testing.T, opts runner.Options) *runner.Runner {
	t.Helper()
	if opts.Selector == nil {
		opts.Selector = fixedSelector("http://example.invalid/?page=1")
	}
	r, err := runner.New(opts)
	if err != nil {
		t.Fatalf("runner.New() error = %v", err)
	}
	return r
}

func TestNewRequiresDependencies(t *testing.T) {
	caller := &fakeCaller{}
	collector := metrics.NewCollector()
	defer collector.Close()

	tests := []struct {
		name string
		opts runner.Options
	}{
		{name: "no selector", opts: runner.Options{Caller: caller, Recorder: collector}},
		{name: "no caller", opts: runner.Options{Selector: fixedSelector("x"), Recorder: collector}},
		{name: "no recorder", opts: runner.Options{Selector: fixedSelector("x"), Caller: caller}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runner.New(tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRunRecordsEveryRequest(t *testing.T) {
	tests := []struct {
		total       int
		concurrency int
	}{
		{0, 1},
		{1, 1},
		{10, 3},
		{100, 10},
		{50, 100},
		{500, 64},
	}

	for _, tt := range tests {
		caller := &fakeCaller{latency: time.Millisecond, failEvery: 4}
		collector := metrics.NewCollector()
		r := newRunner(t, runner.Options{
			Total:       tt.total,
			Concurrency: tt.concurrency,
			Caller:      caller,
			Recorder:    collector,
		})

		res := r.Run(context.Background())
		rs := collector.ResultSet()

		if res.Dispatched != int64(tt.total) {
			t.Errorf("N=%d C=%d: Dispatched = %d", tt.total, tt.concurrency, res.Dispatched)
		}
		if rs.Total() != int64(tt.total) {
			t.Errorf("N=%d C=%d: successes+failures = %d", tt.total, tt.concurrency, rs.Total())
		}
		if int64(len(rs.Samples)) != rs.Successes {
			t.Errorf("N=%d C=%d: %d samples for %d successes", tt.total, tt.concurrency, len(rs.Samples), rs.Successes)
		}
		if wantFailures := int64(tt.total / 4); rs.Failures != wantFailures {
			t.Errorf("N=%d C=%d: failures = %d, want %d", tt.total, tt.concurrency, rs.Failures, wantFailures)
		}
		if caller.calls.Load() != int64(tt.total) {
			t.Errorf("N=%d C=%d: caller invoked %d times", tt.total, tt.concurrency, caller.calls.Load())
		}
		if res.Cancelled {
			t.Errorf("N=%d C=%d: unexpected cancellation", tt.total, tt.concurrency)
		}
		if r.InFlight() != 0 {
			t.Errorf("N=%d C=%d: InFlight() = %d after Run", tt.total, tt.concurrency, r.InFlight())
		}
	}
}

func TestRunNeverExceedsConcurrency(t *testing.T) {
	for _, c := range []int{1, 2, 7, 25} {
		gate := &instrumentedGate{inner: runner.NewGate(c)}
		caller := &fakeCaller{latency: 2 * time.Millisecond}
		collector := metrics.NewCollector()
		r := newRunner(t, runner.Options{
			Total:       200,
			Concurrency: c,
			Gate:        gate,
			Caller:      caller,
			Recorder:    collector,
		})

		r.Run(context.Background())
		collector.Close()

		if got := gate.max.Load(); got > int64(c) {
			t.Errorf("C=%d: gate max holders = %d", c, got)
		}
		if got := caller.maxInFlight.Load(); got > int64(c) {
			t.Errorf("C=%d: max concurrent calls = %d", c, got)
		}
		if gate.holders.Load() != 0 || gate.leaks.Load() != 0 {
			t.Errorf("C=%d: gate not balanced: holders=%d leaks=%d", c, gate.holders.Load(), gate.leaks.Load())
		}
	}
}

func TestRunSerializesWithConcurrencyOne(t *testing.T) {
	latency := 2 * time.Millisecond
	caller := &fakeCaller{latency: latency}
	collector := metrics.NewCollector()
	r := newRunner(t, runner.Options{
		Total:       20,
		Concurrency: 1,
		Caller:      caller,
		Recorder:    collector,
	})

	res := r.Run(context.Background())
	rs := collector.ResultSet()

	if caller.maxInFlight.Load() != 1 {
		t.Fatalf("max concurrent calls = %d, want 1", caller.maxInFlight.Load())
	}

	var sum time.Duration
	for _, s := range rs.Samples {
		sum += s
	}
	if res.Duration < sum {
		t.Fatalf("wall time %s shorter than sum of latencies %s", res.Duration, sum)
	}
	if res.Duration < 20*latency {
		t.Fatalf("wall time %s shorter than 20 x %s", res.Duration, latency)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	caller := &fakeCaller{panicOn: 3}
	collector := metrics.NewCollector()
	// A single slot deadlocks unless panicking units release it.
	r := newRunner(t, runner.Options{
		Total:       30,
		Concurrency: 1,
		Caller:      caller,
		Recorder:    collector,
	})

	done := make(chan runner.Result)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case res := <-done:
		rs := collector.ResultSet()
		if res.Dispatched != 30 || rs.Total() != 30 {
			t.Fatalf("dispatched=%d recorded=%d, want 30/30", res.Dispatched, rs.Total())
		}
		if rs.Failures != 10 {
			t.Fatalf("failures = %d, want 10 recovered panics", rs.Failures)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not finish; a panicking unit kept its slot")
	}
}

func TestRunCancellation(t *testing.T) {
	caller := &fakeCaller{latency: 50 * time.Millisecond}
	collector := metrics.NewCollector()
	r := newRunner(t, runner.Options{
		Total:       1000,
		Concurrency: 4,
		Caller:      caller,
		Recorder:    collector,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := r.Run(ctx)
	elapsed := time.Since(start)

	if !res.Cancelled {
		t.Fatal("expected Cancelled")
	}
	if res.Dispatched >= 1000 {
		t.Fatalf("Dispatched = %d, expected early stop", res.Dispatched)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Run took %s after cancellation", elapsed)
	}

	rs := collector.ResultSet()
	if rs.Total() != res.Dispatched {
		t.Fatalf("recorded %d outcomes for %d dispatched", rs.Total(), res.Dispatched)
	}
	if rs.Failures == 0 {
		t.Fatal("expected in-flight requests aborted by cancellation to fail")
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	caller := &fakeCaller{}
	collector := metrics.NewCollector()
	r := newRunner(t, runner.Options{Total: 10, Concurrency: 2, Caller: caller, Recorder: collector})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Run(ctx)
	if res.Dispatched != 0 || !res.Cancelled {
		t.Fatalf("res = %+v, want nothing dispatched and Cancelled", res)
	}
	if caller.calls.Load() != 0 {
		t.Fatalf("caller invoked %d times", caller.calls.Load())
	}
}

func TestRateLimiterCapsThroughput(t *testing.T) {
	rateLimit := 100
	caller := &fakeCaller{}
	collector := metrics.NewCollector()
	r := newRunner(t, runner.Options{
		Total:          15,
		Concurrency:    20,
		RatePerSecond:  rateLimit,
		Caller:         caller,
		Recorder:       collector,
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})

	res := r.Run(context.Background())
	collector.Close()

	// 15 requests at 100/s with burst 1 need at least 14 intervals of 10ms.
	minExpected := 14 * time.Second / time.Duration(rateLimit)
	if res.Duration < minExpected*8/10 {
		t.Fatalf("rate limiter not applied: %d requests in %s", res.Dispatched, res.Duration)
	}
	if caller.calls.Load() != res.Dispatched {
		t.Fatalf("calls mismatch: %d vs %d", caller.calls.Load(), res.Dispatched)
	}
}

func TestSelectorCalledOncePerRequest(t *testing.T) {
	sel := &countingSelector{}
	collector := metrics.NewCollector()
	r := newRunner(t, runner.Options{
		Total:       40,
		Concurrency: 8,
		Selector:    sel,
		Caller:      &fakeCaller{},
		Recorder:    collector,
	})
	r.Run(context.Background())
	collector.Close()

	if got := sel.n(); got != 40 {
		t.Fatalf("selector called %d times, want 40", got)
	}
}

type countingSelector struct {
	mu    sync.Mutex
	count int
}

func (s *countingSelector) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return "http://example.invalid/?page=1"
}

func (s *countingSelector) n() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
