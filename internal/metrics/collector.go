package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// defaultSampleBuffer bounds how far recorders can run ahead of the drain goroutine.
const defaultSampleBuffer = 4096

// Counts is a live view of the collector counters.
type Counts struct {
	Successes    int64
	Failures     int64
	LatencyTotal time.Duration // sum of success latencies
}

// Completed returns the number of recorded outcomes.
func (c Counts) Completed() int64 {
	return c.Successes + c.Failures
}

// MeanLatency returns the running mean success latency, or 0 before the first success.
func (c Counts) MeanLatency() time.Duration {
	if c.Successes == 0 {
		return 0
	}
	return c.LatencyTotal / time.Duration(c.Successes)
}

// ResultSet is the finalized accumulation of every recorded outcome.
type ResultSet struct {
	Successes int64
	Failures  int64
	Samples   []time.Duration
}

// Total returns successes plus failures.
func (r ResultSet) Total() int64 {
	return r.Successes + r.Failures
}

// Collector records per-request outcomes from many goroutines at once.
//
// Counters are plain atomics. Latency samples are handed to a single drain
// goroutine over a buffered channel, so the hot path never takes a lock.
// Close must be called once every recorder has returned; after that the
// sample slice holds exactly one entry per recorded success.
type Collector struct {
	successes    atomic.Int64
	failures     atomic.Int64
	latencyTotal atomic.Int64

	samples chan time.Duration
	drained []time.Duration
	done    chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewCollector creates a collector and starts its drain goroutine.
func NewCollector() *Collector {
	return NewCollectorWithBuffer(defaultSampleBuffer)
}

// NewCollectorWithBuffer creates a collector whose sample channel holds up to size pending samples.
func NewCollectorWithBuffer(size int) *Collector {
	if size < 0 {
		size = 0
	}
	c := &Collector{
		samples: make(chan time.Duration, size),
		done:    make(chan struct{}),
	}
	go c.drain()
	return c
}

func (c *Collector) drain() {
	defer close(c.done)
	for sample := range c.samples {
		c.drained = append(c.drained, sample)
	}
}

// RecordSuccess records a successful request and its latency.
func (c *Collector) RecordSuccess(elapsed time.Duration) {
	c.mustBeOpen()
	if elapsed < 0 {
		elapsed = 0
	}
	c.latencyTotal.Add(int64(elapsed))
	c.successes.Add(1)
	c.samples <- elapsed
}

// RecordFailure records a failed request.
func (c *Collector) RecordFailure() {
	c.mustBeOpen()
	c.failures.Add(1)
}

// Record routes an outcome to RecordSuccess or RecordFailure.
func (c *Collector) Record(outcome Outcome) {
	if outcome.Success {
		c.RecordSuccess(outcome.Elapsed)
		return
	}
	c.RecordFailure()
}

func (c *Collector) mustBeOpen() {
	if c.closed.Load() {
		panic("metrics: record on closed collector")
	}
}

// Counts returns the current counters. Safe to call while recording is in progress.
func (c *Collector) Counts() Counts {
	return Counts{
		Successes:    c.successes.Load(),
		Failures:     c.failures.Load(),
		LatencyTotal: time.Duration(c.latencyTotal.Load()),
	}
}

// Close stops accepting samples and waits for the drain goroutine to finish.
// It is safe to call more than once.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.samples)
	})
	<-c.done
}

// ResultSet closes the collector if needed and returns a copy of the final results.
func (c *Collector) ResultSet() ResultSet {
	c.Close()
	samples := make([]time.Duration, len(c.drained))
	copy(samples, c.drained)
	return ResultSet{
		Successes: c.successes.Load(),
		Failures:  c.failures.Load(),
		Samples:   samples,
	}
}
