package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/threshold"
)

const notAvailable = "n/a"

// Report is everything printed once a run has finished.
type Report struct {
	RunID           string   `json:"run_id" yaml:"run_id"`
	Targets         []string `json:"targets" yaml:"targets"`
	Requests        int      `json:"requests" yaml:"requests"`
	Concurrency     int      `json:"concurrency" yaml:"concurrency"`
	Cancelled       bool     `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	metrics.Summary `yaml:",inline"`
	Thresholds      []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", r.RunID)
	fmt.Fprintf(w, "Total Requests:    %d\n", r.Requests)
	fmt.Fprintf(w, "Concurrency:       %d\n", r.Concurrency)
	if r.Cancelled {
		fmt.Fprintf(w, "Completed:         %d (cancelled)\n", r.Total)
	}
	fmt.Fprintf(w, "Successful:        %d\n", r.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", r.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Requests/sec:      %s\n", formatRate(r.RequestsPerSec))

	fmt.Fprintln(w, "\nLatency:")
	l := r.Latency
	fmt.Fprintf(w, "  Min:             %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.MinMs }))
	fmt.Fprintf(w, "  Mean:            %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.MeanMs }))
	fmt.Fprintf(w, "  Max:             %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.MaxMs }))
	fmt.Fprintf(w, "  P50:             %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.P50Ms }))
	fmt.Fprintf(w, "  P90:             %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.P90Ms }))
	fmt.Fprintf(w, "  P99:             %s\n", formatMillis(l, func(l *metrics.Latency) float64 { return l.P99Ms }))

	if len(r.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, result := range r.Thresholds {
			fmt.Fprintf(w, "  %s\n", result.Message)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func formatMillis(l *metrics.Latency, field func(*metrics.Latency) float64) string {
	if l == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2fms", field(l))
}

func formatRate(rps *float64) string {
	if rps == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *rps)
}
