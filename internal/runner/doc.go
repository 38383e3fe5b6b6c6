// Package runner is the dispatch engine of a load run.
//
// A [Runner] issues exactly Options.Total requests. Before each one it takes a
// slot from a [Gate], so at most Options.Concurrency requests are ever in
// flight, then starts the request on its own goroutine. The slot is released
// when that request finishes, on every exit path including panics. After the
// last dispatch the runner waits for every outstanding request to finish.
//
//	r, err := runner.New(runner.Options{
//		Total:       50000,
//		Concurrency: 5000,
//		Selector:    selector,  // target.Selector
//		Caller:      adapter,   // httpclient.Adapter
//		Recorder:    collector, // metrics.Collector
//	})
//	if err != nil {
//		return err
//	}
//	result := r.Run(ctx)
//
// Each request records exactly one outcome, so once Run returns the recorder
// holds Result.Dispatched outcomes. A request that fails, whatever the reason,
// is recorded and the run continues.
//
// # Pacing
//
// Options.RatePerSecond adds a token-bucket limiter in front of the gate.
// Zero means dispatch as fast as slots free up.
//
// # Cancellation
//
// When ctx is done no new request is started, requests in flight see the
// cancelled ctx and fail, and Run returns with Result.Cancelled set once they
// have all been recorded.
package runner
