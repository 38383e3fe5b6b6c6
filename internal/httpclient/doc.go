// Package httpclient sends the GET requests of a load run.
//
// [NewClient] builds the shared *http.Client. Its transport keeps enough idle
// connections per host for the configured concurrency, so a steady run reuses
// connections instead of dialing for every request:
//
//	client := httpclient.NewClient(30*time.Second, cfg.Concurrency)
//
// [Adapter] performs a single request and reports a [metrics.Outcome]:
//
//	adapter := httpclient.NewAdapter(client, httpclient.Options{Logger: logger})
//	outcome := adapter.Call(ctx, "http://localhost:7100/api/test/issues?page=7")
//
// Only 2xx responses count as successes. Non-2xx statuses, transport errors,
// timeouts and cancelled contexts are all failures; the status code and error
// are kept on the outcome for logging. Response bodies are drained up to a
// fixed limit and closed but never inspected.
//
// When a [tracing.Provider] is supplied each call runs inside a client span and,
// if propagation is enabled, carries W3C trace context headers.
package httpclient
