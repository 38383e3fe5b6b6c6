package metrics

import "time"

// Outcome is the terminal classification of one dispatched request.
//
// StatusCode and Err are informational only. They are surfaced to failure
// logging and never influence the aggregate statistics: every non-successful
// outcome lands in the same failure bucket.
type Outcome struct {
	Success    bool
	Elapsed    time.Duration
	StatusCode int
	Err        error
}

// Succeeded builds a successful outcome with the measured latency.
func Succeeded(elapsed time.Duration) Outcome {
	if elapsed < 0 {
		elapsed = 0
	}
	return Outcome{Success: true, Elapsed: elapsed}
}

// Failed builds a failed outcome. statusCode is 0 for transport failures.
func Failed(statusCode int, err error) Outcome {
	return Outcome{StatusCode: statusCode, Err: err}
}

// ElapsedMillis returns the latency truncated to whole milliseconds.
func (o Outcome) ElapsedMillis() int64 {
	if o.Elapsed <= 0 {
		return 0
	}
	return o.Elapsed.Milliseconds()
}
