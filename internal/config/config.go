package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults for a run when neither a config file nor a flag sets the value.
const (
	DefaultTotal       = 50000
	DefaultConcurrency = 5000
	DefaultPageMin     = 1
	DefaultPageMax     = 100
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
)

// Concurrency and rate above these values produce a warning.
const (
	highConcurrency = 1000
	highRate        = 1000
)

// Config is the full description of a load run. It is not modified after Load.
type Config struct {
	Targets     []string      `mapstructure:"targets"`
	Total       int           `mapstructure:"total"`
	Concurrency int           `mapstructure:"concurrency"`
	PageMin     int           `mapstructure:"page_min"`
	PageMax     int           `mapstructure:"page_max"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Rate        int           `mapstructure:"rate"`
	Seed        int64         `mapstructure:"seed"`
	JSONOutput  bool          `mapstructure:"json_output"`
	YAMLOutput  bool          `mapstructure:"yaml_output"`
	Dashboard   bool          `mapstructure:"dashboard"`
	LogErrors   bool          `mapstructure:"log_errors"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether an exporter endpoint is configured, either directly
// or through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != ""
}

// ShouldPropagate reports whether outgoing requests carry W3C trace headers.
// Propagation defaults to on whenever tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate reports every problem that would prevent the run from starting.
func (c Config) Validate() error {
	var issues []string

	if len(c.Targets) == 0 {
		issues = append(issues, "at least one target is required (use --help for usage information)")
	}
	for i, t := range c.Targets {
		if strings.TrimSpace(t) == "" {
			issues = append(issues, fmt.Sprintf("targets[%d] must not be empty", i))
		}
	}
	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.PageMin >= c.PageMax {
		issues = append(issues, fmt.Sprintf("page_min (%d) must be less than page_max (%d)", c.PageMin, c.PageMax))
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}

	outputs := 0
	for _, on := range []bool{c.JSONOutput, c.YAMLOutput, c.Dashboard} {
		if on {
			outputs++
		}
	}
	if outputs > 1 {
		issues = append(issues, "json-output, yaml-output and dashboard are mutually exclusive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		issues = append(issues, fmt.Sprintf("unsupported log level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("unsupported log format %q: use \"console\" or \"json\"", c.LogFormat))
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns non-fatal notices about the configuration.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Concurrency > highConcurrency {
		warnings = append(warnings, fmt.Sprintf("high concurrency configured (%d in-flight requests); ensure you have authorization to test the target system", c.Concurrency))
	}
	if c.Rate > highRate {
		warnings = append(warnings, fmt.Sprintf("high rate limit configured (%d RPS); ensure you have authorization to test the target system", c.Rate))
	}
	if c.Concurrency > c.Total && c.Total > 0 {
		warnings = append(warnings, fmt.Sprintf("concurrency (%d) exceeds total requests (%d); at most %d requests will be in flight", c.Concurrency, c.Total, c.Total))
	}
	if c.Tracing.Insecure && c.Tracing.Enabled() {
		warnings = append(warnings, "tracing exporter TLS is disabled")
	}
	return warnings
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported: use \"grpc\" or \"http\"", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
