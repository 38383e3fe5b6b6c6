// Package threshold evaluates pass/fail assertions against a run summary.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/salvo/internal/metrics"
)

// Metric names accepted in a threshold expression.
const (
	MetricLatency  = "latency"
	MetricFailures = "failures"
	MetricRequests = "requests"
)

var (
	// ErrNoLatency is returned when a latency threshold is checked against a run
	// with no successful requests.
	ErrNoLatency = errors.New("latency is undefined: no request succeeded")
	// ErrNoRate is returned when a rate threshold is checked against a run with
	// zero wall-clock duration.
	ErrNoRate = errors.New("requests per second is undefined: run took no time")
)

// metric:aggregate operator value, e.g. "latency:p99 < 500".
var expression = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var aggregates = map[string][]string{
	MetricLatency:  {"min", "max", "avg", "mean", "p50", "p90", "p99"},
	MetricFailures: {"count", "rate"},
	MetricRequests: {"count", "rate"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // latency, failures or requests
	Aggregate string  // e.g. p99, avg, count, rate
	Operator  string  // <, <=, >, >= or ==
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold `json:"-" yaml:"-"`
	Expr      string    `json:"threshold" yaml:"threshold"`
	Actual    float64   `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

// Evaluator evaluates thresholds against a run summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against summary.
func (e *Evaluator) Evaluate(summary metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, summary metrics.Summary) Result {
	actual, err := extractMetricValue(t, summary)
	if err != nil {
		return Result{
			Threshold: t,
			Expr:      t.Raw,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Expr:      t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "latency:p99 < 500"   (latency percentile in ms; also p50, p90)
//   - "latency:avg < 200"   (mean latency in ms; also min, max)
//   - "failures:rate < 0.01" (failure share of all requests)
//   - "failures:count < 10"
//   - "requests:rate > 100"  (successful requests per second)
//   - "requests:count >= 1000"
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, errors.New("empty threshold string")
	}

	matches := expression.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'latency:p99 < 500')", s)
	}

	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", valueStr, err)
	}

	allowed, ok := aggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, failures, requests)", metric)
	}
	if !contains(allowed, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(allowed, ", "))
	}
	if !contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every malformed one.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var problems []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}

	return result, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, summary metrics.Summary) (float64, error) {
	switch t.Metric {
	case MetricLatency:
		return extractLatencyMetric(t.Aggregate, summary.Latency)
	case MetricFailures:
		return extractFailureMetric(t.Aggregate, summary)
	case MetricRequests:
		return extractRequestMetric(t.Aggregate, summary)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, latency *metrics.Latency) (float64, error) {
	if latency == nil {
		return 0, ErrNoLatency
	}
	switch aggregate {
	case "p50":
		return latency.P50Ms, nil
	case "p90":
		return latency.P90Ms, nil
	case "p99":
		return latency.P99Ms, nil
	case "avg", "mean":
		return latency.MeanMs, nil
	case "min":
		return latency.MinMs, nil
	case "max":
		return latency.MaxMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for latency", aggregate)
	}
}

func extractFailureMetric(aggregate string, summary metrics.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(summary.Failures), nil
	case "rate":
		if summary.Total == 0 {
			return 0, nil
		}
		return float64(summary.Failures) / float64(summary.Total), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for failures (use 'count' or 'rate')", aggregate)
	}
}

func extractRequestMetric(aggregate string, summary metrics.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(summary.Total), nil
	case "rate":
		if summary.RequestsPerSec == nil {
			return 0, ErrNoRate
		}
		return *summary.RequestsPerSec, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for requests (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
