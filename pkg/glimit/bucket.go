package glimit

import (
	"sync"
	"time"
)

// Bucket is the token bucket for a single identifier. Tokens are consumed one
// per admitted hit and refilled lazily at refillRate tokens per second, capped
// at capacity. Time is tracked in whole epoch seconds: all tokens for a second
// become available at once, so sub-second bursts are only approximately
// limited at second boundaries. Limits are fixed for the bucket's lifetime.
type Bucket struct {
	capacity   int64 // maximum tokens (burst limit)
	refillRate int64 // tokens added per second

	mu         sync.Mutex
	tokens     int64
	lastRefill int64 // epoch seconds; meaningful only once reconciled is set
	reconciled bool
	clock      int64 // pinned epoch seconds, used when clockSet is true
	clockSet   bool
}

// NewBucket creates a bucket that starts full. Zero or negative capacity and
// refill rate are accepted and yield degenerate behavior: capacity <= 0
// denies every hit, refillRate <= 0 never refills beyond the initial burst.
// Callers wanting validation should do it upstream (see Config.Validate).
func NewBucket(capacity, refillRate int64) *Bucket {
	tokens := capacity
	if tokens < 0 {
		tokens = 0
	}
	return &Bucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     tokens,
	}
}

// Hit attempts to consume one token. It reconciles elapsed time first, then
// reports true (allow) after consuming a token, or false (deny) leaving the
// bucket unchanged. Safe for concurrent use; concurrent hits are linearized.
func (b *Bucket) Hit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reconcile()

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// IsFull reconciles elapsed time exactly as Hit does, then reports whether
// the bucket is at capacity without consuming a token. A full bucket carries
// no pending rate-limit state and is safe for the sweeper to discard.
func (b *Bucket) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reconcile()
	return b.tokens == b.capacity
}

// Remaining returns the tokens currently available, reconciling first.
// The value is a snapshot and may change immediately under concurrent use.
func (b *Bucket) Remaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reconcile()
	return b.tokens
}

// Capacity returns the maximum capacity of the bucket.
func (b *Bucket) Capacity() int64 {
	return b.capacity
}

// RefillRate returns the refill rate (tokens per second).
func (b *Bucket) RefillRate() int64 {
	return b.refillRate
}

// RetryAfter returns how long to wait before the next hit could be allowed.
// Returns 0 when a token is available now, and also when the bucket can never
// refill (refillRate <= 0); callers distinguish the latter via Remaining.
// With whole-second granularity the wait for the next token is one second.
func (b *Bucket) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reconcile()

	if b.tokens > 0 || b.refillRate <= 0 {
		return 0
	}
	return time.Second
}

// SetClock pins the bucket's time source to a fixed epoch-second value so
// tests can reconcile deterministically. Production code never calls this.
func (b *Bucket) SetClock(sec int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clock = sec
	b.clockSet = true
}

// reconcile adds tokens for the whole seconds elapsed since the last refill
// and advances lastRefill. The first reconciliation treats elapsed time as
// zero, so a fresh bucket keeps its full initial burst.
// MUST be called with b.mu held.
func (b *Bucket) reconcile() {
	now := b.now()

	if !b.reconciled {
		b.reconciled = true
		b.lastRefill = now
		return
	}

	elapsed := now - b.lastRefill
	if elapsed > 0 && b.refillRate > 0 {
		b.tokens += elapsed * b.refillRate
		// The negative check also catches int64 overflow on long idle gaps.
		if b.tokens > b.capacity || b.tokens < 0 {
			b.tokens = b.capacity
		}
	}
	b.lastRefill = now
}

// now returns the current time in epoch seconds, honoring a pinned clock.
// MUST be called with b.mu held.
func (b *Bucket) now() int64 {
	if b.clockSet {
		return b.clock
	}
	return time.Now().Unix()
}
