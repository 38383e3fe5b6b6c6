package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/tracing"
)

// maxDrainBytes caps how much of a response body is read before closing it.
// Bodies larger than this are abandoned and their connection is not reused.
const maxDrainBytes = 1 << 20

// Options configure an Adapter.
type Options struct {
	Logger    zerolog.Logger
	Tracing   *tracing.Provider // nil disables spans
	LogErrors bool              // log every failed request at warn level
}

// Adapter issues one GET per call and turns the result into a metrics.Outcome.
// It is safe for concurrent use and shares a single *http.Client.
type Adapter struct {
	client    *http.Client
	logger    zerolog.Logger
	tracing   *tracing.Provider
	tracer    trace.Tracer
	propagate bool
	logErrors bool
}

// NewAdapter wraps client. A nil client falls back to NewClient(0, 0).
func NewAdapter(client *http.Client, opts Options) *Adapter {
	if client == nil {
		client = NewClient(0, 0)
	}
	return &Adapter{
		client:    client,
		logger:    opts.Logger,
		tracing:   opts.Tracing,
		tracer:    opts.Tracing.Tracer(),
		propagate: opts.Tracing.ShouldPropagate(),
		logErrors: opts.LogErrors,
	}
}

// Call sends GET target and classifies the response. 2xx is a success timed
// from just before the request is sent until the response headers arrive.
// Everything else, including transport errors and cancellation, is a failure.
// Call never panics and never returns an error.
func (a *Adapter) Call(ctx context.Context, target string) (outcome metrics.Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracing.StartRequestSpan(ctx, a.tracer, http.MethodGet, target)
	var (
		elapsed time.Duration
		spanErr error
	)
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.Failed(0, fmt.Errorf("panic during request: %v", r))
		}
		if !outcome.Success && spanErr == nil {
			spanErr = outcome.Err
			if spanErr == nil {
				spanErr = fmt.Errorf("unexpected status %d", outcome.StatusCode)
			}
		}
		tracing.EndSpan(span, spanErr, attribute.Int("http.response.status_code", outcome.StatusCode))
		if !outcome.Success {
			a.logFailure(target, outcome, elapsed)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return metrics.Failed(0, fmt.Errorf("build request: %w", err))
	}
	if a.propagate {
		a.tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	elapsed = time.Since(start)
	if err != nil {
		return metrics.Failed(0, err)
	}
	drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return metrics.Failed(resp.StatusCode, nil)
	}
	return metrics.Succeeded(elapsed)
}

func (a *Adapter) logFailure(target string, outcome metrics.Outcome, elapsed time.Duration) {
	if !a.logErrors {
		return
	}
	event := a.logger.Warn().
		Str("target", target).
		Int64("elapsed_ms", elapsed.Milliseconds())
	if outcome.StatusCode != 0 {
		event = event.Int("status", outcome.StatusCode)
	}
	if outcome.Err != nil {
		event = event.Err(outcome.Err)
	}
	event.Msg("request failed")
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
