package glimit

import (
	"sync"
	"testing"
	"time"
)

// pin gives tests a stable base time far from any second boundary concerns.
const pin = int64(1_700_000_000)

func TestNewBucket(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int64
		refillRate int64
		wantTokens int64
	}{
		{name: "starts full", capacity: 10, refillRate: 5, wantTokens: 10},
		{name: "zero capacity starts empty", capacity: 0, refillRate: 5, wantTokens: 0},
		{name: "negative capacity clamps to zero", capacity: -3, refillRate: 5, wantTokens: 0},
		{name: "zero rate still holds burst", capacity: 4, refillRate: 0, wantTokens: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket := NewBucket(tt.capacity, tt.refillRate)
			bucket.SetClock(pin)

			if bucket.Capacity() != tt.capacity {
				t.Errorf("Capacity() = %d, want %d", bucket.Capacity(), tt.capacity)
			}
			if bucket.RefillRate() != tt.refillRate {
				t.Errorf("RefillRate() = %d, want %d", bucket.RefillRate(), tt.refillRate)
			}
			if got := bucket.Remaining(); got != tt.wantTokens {
				t.Errorf("Remaining() = %d, want %d", got, tt.wantTokens)
			}
		})
	}
}

func TestBucket_Hit_ConsumesBurst(t *testing.T) {
	bucket := NewBucket(2, 2)
	bucket.SetClock(pin)

	// First capacity hits allow, then deny with no time advance.
	for i := 0; i < 2; i++ {
		if !bucket.Hit() {
			t.Errorf("hit %d should be allowed", i+1)
		}
	}
	if bucket.Hit() {
		t.Error("3rd hit should be denied")
	}
	if bucket.Hit() {
		t.Error("4th hit should be denied")
	}
	if got := bucket.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestBucket_Refill(t *testing.T) {
	bucket := NewBucket(3, 1)
	bucket.SetClock(pin)

	// Drain the full bucket at t=0.
	for i := 0; i < 3; i++ {
		if !bucket.Hit() {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if bucket.Hit() {
		t.Fatal("bucket should be empty")
	}

	// One second grants exactly one token.
	bucket.SetClock(pin + 1)
	if !bucket.Hit() {
		t.Error("hit should be allowed after 1s refill")
	}
	if bucket.Hit() {
		t.Error("only 1 token should have refilled")
	}

	// Three more seconds from empty grant exactly three.
	bucket.SetClock(pin + 4)
	for i := 0; i < 3; i++ {
		if !bucket.Hit() {
			t.Errorf("hit %d should be allowed after 3s refill", i+1)
		}
	}
	if bucket.Hit() {
		t.Error("hit beyond refilled tokens should be denied")
	}
}

func TestBucket_RefillCapsAtCapacity(t *testing.T) {
	bucket := NewBucket(5, 10)
	bucket.SetClock(pin)
	bucket.Hit()

	// A long idle gap never grows the bucket past capacity.
	bucket.SetClock(pin + 1_000_000)
	if got := bucket.Remaining(); got != 5 {
		t.Errorf("Remaining() = %d, want 5 (capped at capacity)", got)
	}

	allowed := 0
	for i := 0; i < 100; i++ {
		if bucket.Hit() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("allowed %d hits, want 5", allowed)
	}
}

func TestBucket_FirstReconciliationGrantsNoTokens(t *testing.T) {
	// A fresh bucket's first reconciliation treats elapsed time as zero:
	// the initial burst is all it has, no matter how "late" it is touched.
	bucket := NewBucket(2, 100)
	bucket.SetClock(pin + 50)

	if !bucket.Hit() || !bucket.Hit() {
		t.Fatal("initial burst should allow 2 hits")
	}
	if bucket.Hit() {
		t.Error("3rd hit should be denied; first touch must not refill")
	}
}

func TestBucket_IsFull(t *testing.T) {
	bucket := NewBucket(3, 1)
	bucket.SetClock(pin)

	if !bucket.IsFull() {
		t.Error("new bucket should be full")
	}

	bucket.Hit()
	if bucket.IsFull() {
		t.Error("bucket with a consumed token should not be full")
	}

	// IsFull reconciles time, so an idle bucket reports full again...
	bucket.SetClock(pin + 1)
	if !bucket.IsFull() {
		t.Error("bucket should be full again after refilling")
	}

	// ...without consuming anything.
	if got := bucket.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d after IsFull, want 3", got)
	}
}

func TestBucket_ZeroCapacityDeniesEverything(t *testing.T) {
	bucket := NewBucket(0, 10)
	bucket.SetClock(pin)

	for i := 0; i < 3; i++ {
		if bucket.Hit() {
			t.Fatal("zero-capacity bucket must deny every hit")
		}
		bucket.SetClock(pin + int64(i+1)*100)
	}
}

func TestBucket_ZeroRateNeverRefills(t *testing.T) {
	bucket := NewBucket(2, 0)
	bucket.SetClock(pin)

	bucket.Hit()
	bucket.Hit()
	bucket.SetClock(pin + 1_000_000)

	if bucket.Hit() {
		t.Error("zero-rate bucket must never refill beyond the initial burst")
	}
}

func TestBucket_RetryAfter(t *testing.T) {
	bucket := NewBucket(1, 10)
	bucket.SetClock(pin)

	if got := bucket.RetryAfter(); got != 0 {
		t.Errorf("RetryAfter() = %v with tokens available, want 0", got)
	}

	bucket.Hit()
	if got := bucket.RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter() = %v when empty, want %v", got, time.Second)
	}

	// A bucket that can never refill reports no wait; Remaining tells the
	// caller it is stuck.
	stuck := NewBucket(1, 0)
	stuck.SetClock(pin)
	stuck.Hit()
	if got := stuck.RetryAfter(); got != 0 {
		t.Errorf("RetryAfter() = %v for zero-rate bucket, want 0", got)
	}
}

func TestBucket_ClockMovingBackwards(t *testing.T) {
	bucket := NewBucket(3, 1)
	bucket.SetClock(pin)
	bucket.Hit()

	// Backwards clock movement neither refills nor goes negative.
	bucket.SetClock(pin - 100)
	if got := bucket.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d after clock rollback, want 2", got)
	}
}

func TestBucket_ConcurrentHits(t *testing.T) {
	// Zero refill rate makes token conservation exact: with capacity 1000,
	// exactly 1000 of 2000 concurrent hits may win.
	bucket := NewBucket(1000, 0)
	bucket.SetClock(pin)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if bucket.Hit() {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if allowed != 1000 {
		t.Errorf("allowed %d concurrent hits, want exactly 1000", allowed)
	}
	if got := bucket.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}
