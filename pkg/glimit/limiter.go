package glimit

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RateLimiter is the main interface for per-key admission control.
type RateLimiter interface {
	// Allow checks whether a hit for the given key is admitted under the
	// default policy. A returned error means admission could not be
	// evaluated; it is never an implicit allow or deny.
	Allow(key string) (*Decision, error)

	// AllowRequest extracts the key from the request with the configured
	// key extractor and checks it against the policy for the request's
	// route.
	AllowRequest(r *http.Request) (*Decision, error)

	// Middleware returns an HTTP middleware that applies rate limiting.
	Middleware(next http.Handler) http.Handler

	// StartSweeper starts the background reclamation of fully refilled
	// buckets and returns a stop function.
	StartSweeper() func()

	// Registry exposes the underlying bucket registry, mainly for direct
	// Sweep calls and inspection in tests.
	Registry() *Registry
}

// Decision contains the result of an admission check.
type Decision struct {
	// Allowed indicates whether the hit was admitted
	Allowed bool

	// Remaining is the number of tokens left in the bucket
	Remaining int64

	// Limit is the bucket's total capacity (max burst)
	Limit int64

	// RetryAfter is how long to wait before the next hit could be allowed;
	// 0 when Allowed is true
	RetryAfter time.Duration

	// Key is the rate limit key that was checked
	Key string

	// Route is the route the policy was resolved for, when applicable
	Route string
}

// rateLimiter is the concrete implementation of RateLimiter.
type rateLimiter struct {
	registry       *Registry
	config         *Config
	keyExtractor   KeyExtractor
	routeExtractor func(string) string
	recorder       Recorder
	denyHandler    http.Handler
	errorHandler   func(http.ResponseWriter, *http.Request, error)
	sweepInterval  time.Duration

	// user-supplied limit functions; when set they replace the config
	// policies as the source of per-identifier limits
	rateFn     RateFunc
	capacityFn RateFunc
}

// NewRateLimiter creates a RateLimiter from the given options. With no
// options it rate limits by client IP under the default policy.
//
// Example:
//
//	limiter, err := glimit.NewRateLimiter(
//	    glimit.WithDefaults(100, 10),  // burst 100, 10 tokens/sec
//	    glimit.WithKeyExtractor(glimit.ExtractIPWithProxy()),
//	)
func NewRateLimiter(opts ...Option) (RateLimiter, error) {
	rl := &rateLimiter{
		config:         NewConfig(),
		routeExtractor: func(path string) string { return path },
		recorder:       NopRecorder{},
	}

	for _, opt := range opts {
		if err := opt(rl); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if rl.keyExtractor == nil {
		extractor, err := ParseKeyExtractor(rl.config.KeyExtractor)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key extractor config: %w", err)
		}
		rl.keyExtractor = extractor
	}

	if rl.sweepInterval <= 0 {
		rl.sweepInterval = rl.config.sweepInterval()
	}

	rateFn, capacityFn := rl.rateFn, rl.capacityFn
	if rateFn == nil {
		// Resolve limits from the config policy for the identifier's route.
		// Evaluated once per bucket creation, so later policy edits never
		// change limits for buckets that already exist.
		rateFn = func(id string) int64 { return rl.config.GetPolicy(routeOf(id)).RefillRate }
		capacityFn = func(id string) int64 { return rl.config.GetPolicy(routeOf(id)).Capacity }
	}

	registry, err := NewRegistry(rateFn, capacityFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	registry.recorder = rl.recorder
	rl.registry = registry

	return rl, nil
}

// identifierFor partitions bucket state by route and key. The '|' separator
// cannot occur in a route path, and extracted keys carry a scheme prefix
// ("ip:", "bearer:", ...), so the mapping is unambiguous.
func identifierFor(route, key string) string {
	if route == "" {
		return key
	}
	return route + "|" + key
}

// routeOf recovers the route part of a composite identifier; empty for
// identifiers checked under the default policy.
func routeOf(identifier string) string {
	if i := strings.IndexByte(identifier, '|'); i >= 0 {
		return identifier[:i]
	}
	return ""
}

// Allow checks whether a hit for the given key is admitted.
func (rl *rateLimiter) Allow(key string) (*Decision, error) {
	return rl.allow("", key)
}

// allow runs one admission check for the (route, key) pair.
func (rl *rateLimiter) allow(route, key string) (*Decision, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	bucket, err := rl.registry.GetOrCreate(identifierFor(route, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryFailed, err)
	}

	allowed := bucket.Hit()
	rl.recorder.RecordDecision(key, allowed)

	decision := &Decision{
		Allowed:   allowed,
		Remaining: bucket.Remaining(),
		Limit:     bucket.Capacity(),
		Key:       key,
		Route:     route,
	}
	if !allowed {
		decision.RetryAfter = bucket.RetryAfter()
	}

	return decision, nil
}

// AllowRequest checks an HTTP request against the policy for its route.
func (rl *rateLimiter) AllowRequest(r *http.Request) (*Decision, error) {
	key, err := rl.keyExtractor(r)
	if err != nil {
		return nil, fmt.Errorf("key extraction failed: %w", err)
	}

	route := rl.routeExtractor(r.URL.Path)
	policy := rl.config.GetPolicy(route)

	if !policy.Enabled {
		return &Decision{
			Allowed:   true,
			Remaining: policy.Capacity,
			Limit:     policy.Capacity,
			Key:       key,
			Route:     route,
		}, nil
	}

	return rl.allow(route, key)
}

// Middleware returns an HTTP middleware that applies rate limiting.
// It sets standard rate limit headers and dispatches denied requests to the
// configured limit-exceeded handler (429 by default). Evaluation failures go
// to the configured error handler (500 by default) rather than being treated
// as an allow or a deny.
//
// Headers:
//   - X-RateLimit-Limit: bucket capacity
//   - X-RateLimit-Remaining: tokens remaining
//   - X-RateLimit-Reset: Unix timestamp of the next token (when denied)
//   - Retry-After: seconds to wait (when denied)
func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := rl.AllowRequest(r)
		if err != nil {
			rl.handleError(w, r, err)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				resetTime := time.Now().Add(decision.RetryAfter).Unix()
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", decision.RetryAfter.Seconds()))
			}
			rl.handleDeny(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) handleDeny(w http.ResponseWriter, r *http.Request) {
	if rl.denyHandler != nil {
		rl.denyHandler.ServeHTTP(w, r)
		return
	}
	http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
}

func (rl *rateLimiter) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if rl.errorHandler != nil {
		rl.errorHandler(w, r, err)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// StartSweeper starts the background reclamation loop at the configured
// interval and returns its stop function.
func (rl *rateLimiter) StartSweeper() func() {
	return rl.registry.StartSweeper(rl.sweepInterval)
}

// Registry returns the underlying bucket registry.
func (rl *rateLimiter) Registry() *Registry {
	return rl.registry
}
