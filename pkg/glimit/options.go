package glimit

import (
	"fmt"
	"net/http"
	"time"
)

// Option is a functional option for configuring a RateLimiter.
type Option func(*rateLimiter) error

// WithConfig sets the configuration for the rate limiter.
func WithConfig(config *Config) Option {
	return func(rl *rateLimiter) error {
		if config == nil {
			return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		rl.config = config
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(rl *rateLimiter) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		rl.config = config
		return nil
	}
}

// WithDefaults sets simple default rate limiting parameters: a burst
// capacity and a refill rate in tokens per second. This is a convenience
// option for basic use cases.
func WithDefaults(capacity, refillRate int64) Option {
	return func(rl *rateLimiter) error {
		if capacity <= 0 {
			return ErrInvalidCapacity
		}
		if refillRate <= 0 {
			return ErrInvalidRefillRate
		}

		rl.config.Defaults = PolicyConfig{
			Capacity:   capacity,
			RefillRate: refillRate,
			Enabled:    true,
		}
		return nil
	}
}

// WithLimitFuncs supplies per-identifier limit functions directly, replacing
// config policies as the source of rates and capacities. Each function is
// evaluated once per bucket creation; limits are fixed once a bucket exists.
func WithLimitFuncs(rateFn, capacityFn RateFunc) Option {
	return func(rl *rateLimiter) error {
		if rateFn == nil || capacityFn == nil {
			return fmt.Errorf("%w: rate and capacity functions are required", ErrInvalidConfig)
		}
		rl.rateFn = rateFn
		rl.capacityFn = capacityFn
		return nil
	}
}

// WithKeyExtractor sets a custom key extractor function.
func WithKeyExtractor(extractor KeyExtractor) Option {
	return func(rl *rateLimiter) error {
		if extractor == nil {
			return fmt.Errorf("%w: key extractor cannot be nil", ErrInvalidConfig)
		}
		rl.keyExtractor = extractor
		return nil
	}
}

// WithRouteExtractor sets a function to derive the policy route from a
// request path. By default the path itself is used; this allows collapsing
// path parameters into one route.
func WithRouteExtractor(fn func(path string) string) Option {
	return func(rl *rateLimiter) error {
		if fn == nil {
			return fmt.Errorf("%w: route extractor cannot be nil", ErrInvalidConfig)
		}
		rl.routeExtractor = fn
		return nil
	}
}

// WithSweepInterval sets how often the background sweeper reclaims fully
// refilled buckets. Default: 10 seconds.
func WithSweepInterval(interval time.Duration) Option {
	return func(rl *rateLimiter) error {
		if interval <= 0 {
			return fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
		}
		rl.sweepInterval = interval
		return nil
	}
}

// WithRecorder injects a telemetry recorder, such as the Prometheus recorder
// from the metrics package. Default: a no-op recorder.
func WithRecorder(recorder Recorder) Option {
	return func(rl *rateLimiter) error {
		if recorder == nil {
			return fmt.Errorf("%w: recorder cannot be nil", ErrInvalidConfig)
		}
		rl.recorder = recorder
		return nil
	}
}

// WithLimitExceededHandler sets the handler invoked by the middleware when a
// request is denied. Rate limit headers are already set when it runs.
// Default: a plain 429 response.
func WithLimitExceededHandler(h http.Handler) Option {
	return func(rl *rateLimiter) error {
		if h == nil {
			return fmt.Errorf("%w: limit exceeded handler cannot be nil", ErrInvalidConfig)
		}
		rl.denyHandler = h
		return nil
	}
}

// WithErrorHandler sets the handler invoked by the middleware when admission
// could not be evaluated. The middleware never converts such failures into an
// implicit allow or deny; this handler decides fail-open vs fail-closed.
// Default: a plain 500 response.
func WithErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) Option {
	return func(rl *rateLimiter) error {
		if fn == nil {
			return fmt.Errorf("%w: error handler cannot be nil", ErrInvalidConfig)
		}
		rl.errorHandler = fn
		return nil
	}
}
