package threshold

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/torosent/salvo/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "p99 latency",
			input: "latency:p99 < 500",
			want:  Threshold{Metric: "latency", Aggregate: "p99", Operator: "<", Value: 500, Raw: "latency:p99 < 500"},
		},
		{
			name:  "failure rate",
			input: "failures:rate < 0.01",
			want:  Threshold{Metric: "failures", Aggregate: "rate", Operator: "<", Value: 0.01, Raw: "failures:rate < 0.01"},
		},
		{
			name:  "p90 latency with <=",
			input: "latency:p90 <= 1000",
			want:  Threshold{Metric: "latency", Aggregate: "p90", Operator: "<=", Value: 1000, Raw: "latency:p90 <= 1000"},
		},
		{
			name:  "requests rate with >",
			input: "requests:rate > 100",
			want:  Threshold{Metric: "requests", Aggregate: "rate", Operator: ">", Value: 100, Raw: "requests:rate > 100"},
		},
		{
			name:  "surrounding whitespace and no spaces",
			input: "  latency:avg<200 ",
			want:  Threshold{Metric: "latency", Aggregate: "avg", Operator: "<", Value: 200, Raw: "latency:avg<200"},
		},
		{name: "empty string", input: "", wantError: true},
		{name: "missing operator", input: "latency:p99 500", wantError: true},
		{name: "unknown metric", input: "bogus:p99 < 500", wantError: true},
		{name: "unknown aggregate", input: "latency:p85 < 500", wantError: true},
		{name: "aggregate not valid for metric", input: "failures:p99 < 5", wantError: true},
		{name: "rate on latency", input: "latency:rate < 5", wantError: true},
		{name: "unsupported operator", input: "latency:p99 << 500", wantError: true},
		{name: "not equal is unsupported", input: "latency:p99 != 500", wantError: true},
		{name: "value not a number", input: "latency:p99 < abc", wantError: true},
		{name: "malformed number", input: "latency:p99 < 1.2.3", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("Parse() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name:      "multiple valid thresholds",
			input:     []string{"latency:p99 < 500", "failures:rate < 0.01", "requests:rate > 100"},
			wantCount: 3,
		},
		{
			name:  "empty slice",
			input: []string{},
		},
		{
			name:      "one valid, one invalid",
			input:     []string{"latency:p99 < 500", "invalid threshold"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestParseMultipleReportsEveryProblem(t *testing.T) {
	_, err := ParseMultiple([]string{"bad one", "latency:p99 < 5", "bad two"})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"threshold[0]", "threshold[2]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func sampleSummary() metrics.Summary {
	rps := 100.0
	return metrics.Summary{
		Total:     1000,
		Successes: 980,
		Failures:  20,
		Latency: &metrics.Latency{
			MinMs:  10,
			MaxMs:  500,
			MeanMs: 100,
			P50Ms:  80,
			P90Ms:  200,
			P99Ms:  400,
		},
		Duration:       10 * time.Second,
		DurationMs:     10000,
		RequestsPerSec: &rps,
	}
}

func TestEvaluator(t *testing.T) {
	summary := sampleSummary()

	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "all thresholds pass",
			thresholds: []string{"latency:p99 < 500", "failures:rate < 0.05", "requests:rate > 50"},
			wantPass:   []bool{true, true, true},
		},
		{
			name:       "some thresholds fail",
			thresholds: []string{"latency:p99 < 300", "failures:rate < 0.01", "requests:rate > 50"},
			wantPass:   []bool{false, false, true},
		},
		{
			name:       "latency percentiles",
			thresholds: []string{"latency:p50 < 100", "latency:p90 < 250", "latency:p99 < 450"},
			wantPass:   []bool{true, true, true},
		},
		{
			name:       "avg min and max latency",
			thresholds: []string{"latency:avg < 150", "latency:mean == 100", "latency:max < 600", "latency:min > 5"},
			wantPass:   []bool{true, true, true, true},
		},
		{
			name:       "failure count",
			thresholds: []string{"failures:count < 50", "failures:count <= 20", "failures:count > 20"},
			wantPass:   []bool{true, true, false},
		},
		{
			name:       "request count",
			thresholds: []string{"requests:count > 900", "requests:count >= 1000"},
			wantPass:   []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			results := NewEvaluator(thresholds).Evaluate(summary)
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f)",
						i, result.Expr, result.Pass, tt.wantPass[i], result.Actual)
				}
			}
		})
	}
}

func TestEvaluatorMessages(t *testing.T) {
	thresholds, err := ParseMultiple([]string{"latency:p99 < 500", "latency:p99 < 300"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := NewEvaluator(thresholds).Evaluate(sampleSummary())

	if got := results[0].Message; got != "✓ latency:p99 < 500: 400.00 < 500.00" {
		t.Errorf("pass message = %q", got)
	}
	if !strings.HasPrefix(results[1].Message, "✗ latency:p99 < 300") {
		t.Errorf("fail message = %q", results[1].Message)
	}
	if AllPassed(results) {
		t.Error("AllPassed() = true, want false")
	}
	if !AllPassed(results[:1]) {
		t.Error("AllPassed() = false, want true")
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if results := NewEvaluator(nil).Evaluate(sampleSummary()); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
	if !AllPassed(nil) {
		t.Fatal("AllPassed(nil) should be true")
	}
}

func TestEvaluatorAbsentFieldsFail(t *testing.T) {
	summary := metrics.Summary{Total: 10, Failures: 10}

	thresholds, err := ParseMultiple([]string{"latency:p99 < 500", "requests:rate >= 0", "failures:rate == 1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := NewEvaluator(thresholds).Evaluate(summary)

	if results[0].Pass || !strings.Contains(results[0].Message, "no request succeeded") {
		t.Errorf("latency result = %+v, want failure mentioning missing latency", results[0])
	}
	if results[1].Pass || !strings.Contains(results[1].Message, "undefined") {
		t.Errorf("rate result = %+v, want failure mentioning undefined rate", results[1])
	}
	if !results[2].Pass {
		t.Errorf("failure rate result = %+v, want pass", results[2])
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
		{"unknown operator", 1, "!=", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareValues(tt.actual, tt.operator, tt.expected); got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestExtractMetricValue(t *testing.T) {
	summary := sampleSummary()

	tests := []struct {
		name      string
		threshold Threshold
		want      float64
		wantError bool
	}{
		{name: "latency p50", threshold: Threshold{Metric: "latency", Aggregate: "p50"}, want: 80},
		{name: "latency p90", threshold: Threshold{Metric: "latency", Aggregate: "p90"}, want: 200},
		{name: "latency p99", threshold: Threshold{Metric: "latency", Aggregate: "p99"}, want: 400},
		{name: "latency avg", threshold: Threshold{Metric: "latency", Aggregate: "avg"}, want: 100},
		{name: "latency min", threshold: Threshold{Metric: "latency", Aggregate: "min"}, want: 10},
		{name: "latency max", threshold: Threshold{Metric: "latency", Aggregate: "max"}, want: 500},
		{name: "failures rate", threshold: Threshold{Metric: "failures", Aggregate: "rate"}, want: 0.02},
		{name: "failures count", threshold: Threshold{Metric: "failures", Aggregate: "count"}, want: 20},
		{name: "requests rate", threshold: Threshold{Metric: "requests", Aggregate: "rate"}, want: 100},
		{name: "requests count", threshold: Threshold{Metric: "requests", Aggregate: "count"}, want: 1000},
		{name: "unsupported metric", threshold: Threshold{Metric: "bogus", Aggregate: "p99"}, wantError: true},
		{name: "unsupported aggregate", threshold: Threshold{Metric: "failures", Aggregate: "p99"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMetricValue(tt.threshold, summary)
			if (err != nil) != tt.wantError {
				t.Fatalf("extractMetricValue() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("extractMetricValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractMetricValueAbsentFields(t *testing.T) {
	summary := metrics.Summary{Total: 0}

	if _, err := extractMetricValue(Threshold{Metric: "latency", Aggregate: "p99"}, summary); !errors.Is(err, ErrNoLatency) {
		t.Errorf("latency error = %v, want ErrNoLatency", err)
	}
	if _, err := extractMetricValue(Threshold{Metric: "requests", Aggregate: "rate"}, summary); !errors.Is(err, ErrNoRate) {
		t.Errorf("rate error = %v, want ErrNoRate", err)
	}
	got, err := extractMetricValue(Threshold{Metric: "failures", Aggregate: "rate"}, summary)
	if err != nil || got != 0 {
		t.Errorf("failure rate on empty run = %v, %v; want 0, nil", got, err)
	}
}
