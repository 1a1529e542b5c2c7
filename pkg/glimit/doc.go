// Package glimit provides per-key admission control using the token bucket
// algorithm. Given an arbitrary identifier (IP address, user ID, request
// key), it decides whether an operation may proceed, with a steady-state rate
// and burst capacity that can vary per identifier.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	limiter, err := glimit.NewRateLimiter(
//	    glimit.WithDefaults(100, 10),  // burst 100, 10 tokens/sec
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	decision, err := limiter.Allow("user-123")
//	if err != nil {
//	    // admission could not be evaluated; decide fail-open vs fail-closed
//	}
//	if !decision.Allowed {
//	    fmt.Printf("rate limited, retry after %v\n", decision.RetryAfter)
//	}
//
// # Architecture
//
// Three pieces cooperate:
//
//   - Bucket: the token-bucket state machine for one identifier. Refill is
//     computed lazily on access rather than by a timer per bucket, so idle
//     buckets cost nothing but memory.
//   - Registry: a concurrency-safe directory mapping identifiers to buckets.
//     Buckets are created on first reference with limits resolved by a pair
//     of per-identifier functions, evaluated once; an existing bucket keeps
//     the limits it was born with.
//   - Sweeper: a background loop that periodically removes buckets found at
//     full capacity. A full bucket carries no rate-limit state worth keeping,
//     so memory is bounded by recently active identifiers instead of every
//     identifier ever seen. Buckets with consumed tokens are never swept.
//
// # Dynamic Per-Identifier Limits
//
// Limits can differ per identifier by supplying functions instead of
// constants:
//
//	limiter, err := glimit.NewRateLimiter(
//	    glimit.WithLimitFuncs(
//	        func(id string) int64 { if premium(id) { return 100 }; return 10 },
//	        func(id string) int64 { if premium(id) { return 500 }; return 50 },
//	    ),
//	)
//
// The registry can also be used directly, without the HTTP surface:
//
//	registry, err := glimit.NewRegistry(rateFn, capacityFn)
//	bucket, err := registry.GetOrCreate("user-123")
//	if bucket.Hit() {
//	    // admitted
//	}
//	stop := registry.StartSweeper(10 * time.Second)
//	defer stop()
//
// # Time Granularity
//
// Buckets track time in whole epoch seconds. All tokens for a second become
// available at once, so a client can spend a full second's refill in the
// first millisecond of that second. This is accepted behavior, kept for
// predictability; it bounds the error to one second's worth of tokens.
//
// # HTTP Middleware
//
//	limiter, _ := glimit.NewRateLimiter(
//	    glimit.WithDefaults(100, 10),
//	    glimit.WithKeyExtractor(glimit.ExtractIPWithProxy()),
//	)
//	stop := limiter.StartSweeper()
//	defer stop()
//
//	http.Handle("/api/", limiter.Middleware(apiHandler))
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and, when a
// request is denied, X-RateLimit-Reset and Retry-After. Denied requests go
// to the handler from WithLimitExceededHandler (429 by default). When
// admission cannot be evaluated the request goes to the handler from
// WithErrorHandler (500 by default); the library never converts an
// evaluation failure into an implicit allow or deny.
//
// # Configuration
//
// Policies can be loaded from a YAML file, with per-route overrides:
//
//	defaults:
//	  capacity: 100
//	  refill_rate: 10
//	  enabled: true
//
//	policies:
//	  "/api/login":
//	    capacity: 5
//	    refill_rate: 1
//	    enabled: true
//
//	key_extractor: "ip_proxy"
//	sweep_interval: "10s"
//
// Per-route policies are resolved when a bucket is created, so editing a
// policy at runtime affects only buckets created afterwards.
//
// # Concurrency
//
// All operations are safe for concurrent use. Each bucket serializes its own
// state behind a mutex, so concurrent hits are linearized: total tokens
// consumed never exceeds what sequential application would allow. The
// registry guarantees at most one bucket per identifier even under racing
// first use. The sweeper races benignly with concurrent hits: a hit lands
// either on the old full bucket or on a freshly created full one, which are
// observably identical.
//
// # Metrics
//
// Telemetry goes through the Recorder interface; the default recorder is a
// no-op. The metrics package provides a Prometheus-backed implementation:
//
//	rec := metrics.NewRecorder(prometheus.DefaultRegisterer)
//	limiter, _ := glimit.NewRateLimiter(glimit.WithRecorder(rec))
//
// # Scope
//
// State lives in process memory only: nothing is persisted across restarts
// and nothing is shared across machines. Each process instance enforces its
// own limits.
package glimit
