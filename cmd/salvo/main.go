package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/torosent/salvo/internal/config"
	"github.com/torosent/salvo/internal/dashboard"
	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/logging"
	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/output"
	"github.com/torosent/salvo/internal/runner"
	"github.com/torosent/salvo/internal/target"
	"github.com/torosent/salvo/internal/threshold"
	"github.com/torosent/salvo/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: stderr})
	if err != nil {
		return err
	}
	runID := ulid.Make().String()
	logger = logger.With().Str("run_id", runID).Logger()

	for _, warning := range cfg.Warnings() {
		logger.Warn().Msg(warning)
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(provider, logger)

	selector, err := target.New(cfg.Targets, cfg.PageMin, cfg.PageMax, cfg.Seed)
	if err != nil {
		return err
	}

	client := httpclient.NewClient(cfg.Timeout, cfg.Concurrency)
	defer client.CloseIdleConnections()

	collector := metrics.NewCollector()
	r, err := runner.New(runner.Options{
		Total:         cfg.Total,
		Concurrency:   cfg.Concurrency,
		RatePerSecond: cfg.Rate,
		Selector:      selector,
		Caller: httpclient.NewAdapter(client, httpclient.Options{
			Logger:    logger,
			Tracing:   provider,
			LogErrors: cfg.LogErrors,
		}),
		Recorder: collector,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopLive, err := startLiveView(cfg, runID, collector, r, cancel, stdout)
	if err != nil {
		return err
	}

	logger.Info().
		Int("total", cfg.Total).
		Int("concurrency", cfg.Concurrency).
		Int("targets", len(cfg.Targets)).
		Msg("starting load test")

	result := r.Run(runCtx)
	stopLive()

	summary := metrics.Summarize(collector.ResultSet(), result.Duration)
	report := output.Report{
		RunID:       runID,
		Targets:     cfg.Targets,
		Requests:    cfg.Total,
		Concurrency: cfg.Concurrency,
		Cancelled:   result.Cancelled,
		Summary:     summary,
		Thresholds:  threshold.NewEvaluator(thresholds).Evaluate(summary),
	}

	logger.Info().
		Int64("successes", summary.Successes).
		Int64("failures", summary.Failures).
		Dur("duration", summary.Duration).
		Msg("load test finished")

	if err := printReport(cfg, stdout, report); err != nil {
		return err
	}

	if !threshold.AllPassed(report.Thresholds) {
		return fmt.Errorf("%d of %d thresholds failed", countFailed(report.Thresholds), len(report.Thresholds))
	}
	if summary.Failures > 0 {
		return fmt.Errorf("%d requests failed", summary.Failures)
	}
	return nil
}

// startLiveView starts the dashboard or the progress line and returns a func
// that stops it. Machine-readable output modes get neither.
func startLiveView(cfg *config.Config, runID string, collector *metrics.Collector, r *runner.Runner, cancel context.CancelFunc, stdout io.Writer) (func(), error) {
	switch {
	case cfg.Dashboard:
		dash, err := dashboard.New(collector, r.InFlight, dashboard.RunInfo{
			RunID:       runID,
			Targets:     cfg.Targets,
			Total:       cfg.Total,
			Concurrency: cfg.Concurrency,
			Rate:        cfg.Rate,
			Timeout:     cfg.Timeout,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return nil, err
		}
		dash.Start()
		return dash.Stop, nil
	case cfg.JSONOutput, cfg.YAMLOutput:
		return func() {}, nil
	default:
		progress := output.NewProgressReporter(collector, r.InFlight, cfg.Total, progressInterval, stdout)
		progress.Start()
		return progress.Stop, nil
	}
}

func printReport(cfg *config.Config, w io.Writer, report output.Report) error {
	switch {
	case cfg.JSONOutput:
		return output.PrintJSONReport(w, report)
	case cfg.YAMLOutput:
		return output.PrintYAMLReport(w, report)
	default:
		output.PrintReport(w, report)
		return nil
	}
}

func shutdownTracing(provider *tracing.Provider, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown failed")
	}
}

func countFailed(results []threshold.Result) int {
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	return failed
}
