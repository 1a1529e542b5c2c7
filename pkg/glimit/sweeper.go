package glimit

import (
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweeper runs unless
// configured otherwise.
const DefaultSweepInterval = 10 * time.Second

// Sweep performs one reclamation pass: every bucket found at full capacity is
// removed from the registry. IsFull reconciles each bucket's clock first, so
// a bucket that has been idle long enough to refill completely is reclaimed
// even if it was hit shortly before the pass started. Buckets with consumed
// tokens are never swept; dropping one would hand the identifier a fresh
// burst it had already spent. Returns the number of buckets removed.
func (r *Registry) Sweep() int {
	removed := 0
	for _, e := range r.GetAll() {
		if e.Bucket.IsFull() {
			r.Remove(e.Identifier)
			removed++
		}
	}
	if removed > 0 {
		r.recorder.RecordSweep(removed)
	}
	return removed
}

// StartSweeper runs Sweep on its own goroutine at the given interval and
// returns a stop function. An interval <= 0 selects DefaultSweepInterval.
// The stop function is idempotent and returns after the loop has been
// signalled; pending passes finish on their own. The interval drifts by the
// latency of each pass, which only makes sweeps more frequent, never stale.
func (r *Registry) StartSweeper(interval time.Duration) func() {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
