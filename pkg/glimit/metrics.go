package glimit

// Recorder receives rate limiter telemetry. Implementations must be safe for
// concurrent use. See the metrics package for a Prometheus-backed recorder.
type Recorder interface {
	// RecordDecision is called once per admission check with its outcome.
	RecordDecision(key string, allowed bool)

	// RecordSweep is called after a sweep pass that removed buckets.
	RecordSweep(removed int)

	// SetActiveBuckets reports the current number of tracked buckets.
	SetActiveBuckets(n int)
}

// NopRecorder discards all telemetry. It is the default recorder, so the hot
// path never has to nil-check.
type NopRecorder struct{}

func (NopRecorder) RecordDecision(string, bool) {}
func (NopRecorder) RecordSweep(int)             {}
func (NopRecorder) SetActiveBuckets(int)        {}
