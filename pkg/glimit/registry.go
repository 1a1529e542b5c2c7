package glimit

import (
	"fmt"
	"sync"
)

// RateFunc maps an identifier to a rate-limit parameter (a steady-state rate
// or a burst capacity). The registry evaluates these once per bucket
// creation; an existing bucket keeps the limits it was created with.
type RateFunc func(identifier string) int64

// ConstantRate returns a RateFunc that yields the same value for every
// identifier.
func ConstantRate(n int64) RateFunc {
	return func(string) int64 { return n }
}

// Entry is one (identifier, bucket) pair from a registry snapshot.
type Entry struct {
	Identifier string
	Bucket     *Bucket
}

// Registry is a concurrency-safe directory of per-identifier buckets.
// Buckets are created lazily on first reference, with their rate and
// capacity resolved by the registry's limit functions at creation time.
// At most one bucket exists per identifier at any time.
type Registry struct {
	rateFn     RateFunc
	capacityFn RateFunc
	recorder   Recorder

	mu      sync.RWMutex
	entries map[string]*Bucket
}

// NewRegistry creates a registry that resolves per-identifier limits through
// the given functions. Both functions are required.
func NewRegistry(rateFn, capacityFn RateFunc) (*Registry, error) {
	if rateFn == nil || capacityFn == nil {
		return nil, fmt.Errorf("%w: rate and capacity functions are required", ErrInvalidConfig)
	}

	return &Registry{
		rateFn:     rateFn,
		capacityFn: capacityFn,
		recorder:   NopRecorder{},
		entries:    make(map[string]*Bucket),
	}, nil
}

// GetOrCreate returns the bucket for the identifier, creating a full bucket
// with freshly resolved limits if none exists. The lookup-or-create sequence
// is atomic per identifier: concurrent first references observe the same
// bucket. Lookups of existing identifiers are served under a read lock.
func (r *Registry) GetOrCreate(identifier string) (*Bucket, error) {
	if identifier == "" {
		return nil, ErrInvalidKey
	}

	// Fast path: bucket already exists.
	r.mu.RLock()
	b, ok := r.entries[identifier]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another goroutine might have created it.
	if b, ok := r.entries[identifier]; ok {
		return b, nil
	}

	b = NewBucket(r.capacityFn(identifier), r.rateFn(identifier))
	r.entries[identifier] = b
	r.recorder.SetActiveBuckets(len(r.entries))

	return b, nil
}

// GetAll returns a point-in-time snapshot of all entries.
func (r *Registry) GetAll() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for identifier, b := range r.entries {
		entries = append(entries, Entry{Identifier: identifier, Bucket: b})
	}
	return entries
}

// Remove deletes the bucket for the identifier if present. Removing a
// missing identifier is not an error.
func (r *Registry) Remove(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, identifier)
	r.recorder.SetActiveBuckets(len(r.entries))
}

// Len returns the number of buckets currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
