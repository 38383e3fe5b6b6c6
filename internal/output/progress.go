package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/salvo/internal/metrics"
)

// CountsSource exposes live counters; *metrics.Collector implements it.
type CountsSource interface {
	Counts() metrics.Counts
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   CountsSource
	inFlight func() int64
	total    int
	interval time.Duration
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
// inFlight may be nil.
func NewProgressReporter(source CountsSource, inFlight func() int64, total int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if inFlight == nil {
		inFlight = func() int64 { return 0 }
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		inFlight: inFlight,
		total:    total,
		interval: interval,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	p.start = time.Now()
	go p.run()
}

// Stop halts progress updates and writes a final line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Fprint(p.writer, "\r"+p.line())
		case <-p.done:
			fmt.Fprintln(p.writer, "\r"+p.line())
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	return FormatProgress(p.source.Counts(), p.inFlight(), p.total, time.Since(p.start))
}

// FormatProgress renders a single progress line.
func FormatProgress(counts metrics.Counts, inFlight int64, total int, elapsed time.Duration) string {
	rps := 0.0
	if elapsed > 0 {
		rps = float64(counts.Successes) / elapsed.Seconds()
	}
	return fmt.Sprintf("Completed: %d/%d | Successes: %d | Failures: %d | In-flight: %d | RPS: %.1f",
		counts.Completed(), total, counts.Successes, counts.Failures, inFlight, rps)
}
