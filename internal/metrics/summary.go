package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs up to 60s with 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 60_000_000
	histogramSigFigs = 3
)

// Latency holds latency aggregates in milliseconds.
type Latency struct {
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs float64 `json:"mean_ms" yaml:"mean_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
	P90Ms  float64 `json:"p90_ms" yaml:"p90_ms"`
	P99Ms  float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Summary is the read-only snapshot derived from a finalized ResultSet.
//
// Latency is nil when no request succeeded. RequestsPerSec is nil when the
// wall-clock duration is zero.
type Summary struct {
	Total          int64         `json:"total" yaml:"total"`
	Successes      int64         `json:"successes" yaml:"successes"`
	Failures       int64         `json:"failures" yaml:"failures"`
	Latency        *Latency      `json:"latency,omitempty" yaml:"latency,omitempty"`
	Duration       time.Duration `json:"-" yaml:"-"`
	DurationMs     float64       `json:"duration_ms" yaml:"duration_ms"`
	RequestsPerSec *float64      `json:"requests_per_sec,omitempty" yaml:"requests_per_sec,omitempty"`
}

// Summarize computes a Summary from a finalized ResultSet and the run's wall-clock duration.
// It does not modify rs and returns identical values for identical inputs.
func Summarize(rs ResultSet, wall time.Duration) Summary {
	if wall < 0 {
		wall = 0
	}
	summary := Summary{
		Total:      rs.Total(),
		Successes:  rs.Successes,
		Failures:   rs.Failures,
		Duration:   wall,
		DurationMs: toMillis(wall),
	}

	if rs.Successes > 0 && len(rs.Samples) > 0 {
		summary.Latency = summarizeLatency(rs.Samples)
	}

	if wall > 0 {
		rps := float64(rs.Successes) / wall.Seconds()
		summary.RequestsPerSec = &rps
	}

	return summary
}

func summarizeLatency(samples []time.Duration) *Latency {
	h := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)

	minLatency := samples[0]
	maxLatency := samples[0]
	var sum time.Duration
	for _, sample := range samples {
		if sample < minLatency {
			minLatency = sample
		}
		if sample > maxLatency {
			maxLatency = sample
		}
		sum += sample

		us := sample.Microseconds()
		if us < h.LowestTrackableValue() {
			us = h.LowestTrackableValue()
		}
		if us > h.HighestTrackableValue() {
			us = h.HighestTrackableValue()
		}
		_ = h.RecordValue(us)
	}

	mean := time.Duration(int64(sum) / int64(len(samples)))
	return &Latency{
		MinMs:  toMillis(minLatency),
		MaxMs:  toMillis(maxLatency),
		MeanMs: toMillis(mean),
		P50Ms:  toMillis(time.Duration(h.ValueAtQuantile(50)) * time.Microsecond),
		P90Ms:  toMillis(time.Duration(h.ValueAtQuantile(90)) * time.Microsecond),
		P99Ms:  toMillis(time.Duration(h.ValueAtQuantile(99)) * time.Microsecond),
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
