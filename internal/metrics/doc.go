// Package metrics collects request outcomes during a load run and aggregates them afterwards.
//
// # Collector
//
// The [Collector] is the only mutable state shared by concurrently running requests:
//
//	collector := metrics.NewCollector()
//
//	// from any number of goroutines
//	collector.Record(metrics.Succeeded(12 * time.Millisecond))
//	collector.Record(metrics.Failed(http.StatusBadGateway, nil))
//
//	// once every request has completed
//	rs := collector.ResultSet()
//
// Success and failure counters are atomics. Latency samples travel over a
// buffered channel to one drain goroutine, which owns the sample slice.
// [Collector.Counts] can be read at any time for live progress.
//
// # Summary
//
// [Summarize] is a pure function from a finalized [ResultSet] and the run's
// wall-clock duration to a [Summary]:
//
//	summary := metrics.Summarize(rs, result.Duration)
//
// Min, max and mean come straight from the samples; percentiles come from an
// HdrHistogram built on the fly. When no request succeeded the latency block is
// nil, and when the wall-clock duration is zero the requests-per-second value is
// nil rather than infinite.
package metrics
