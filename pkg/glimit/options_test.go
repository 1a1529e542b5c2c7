package glimit

import (
	"errors"
	"testing"
	"time"
)

func TestOptions_RejectInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{name: "nil config", opt: WithConfig(nil), want: ErrInvalidConfig},
		{name: "invalid config", opt: WithConfig(&Config{}), want: ErrInvalidConfig},
		{name: "zero capacity", opt: WithDefaults(0, 1), want: ErrInvalidCapacity},
		{name: "zero rate", opt: WithDefaults(1, 0), want: ErrInvalidRefillRate},
		{name: "nil rate fn", opt: WithLimitFuncs(nil, ConstantRate(1)), want: ErrInvalidConfig},
		{name: "nil capacity fn", opt: WithLimitFuncs(ConstantRate(1), nil), want: ErrInvalidConfig},
		{name: "nil key extractor", opt: WithKeyExtractor(nil), want: ErrInvalidConfig},
		{name: "nil route extractor", opt: WithRouteExtractor(nil), want: ErrInvalidConfig},
		{name: "negative sweep interval", opt: WithSweepInterval(-time.Second), want: ErrInvalidConfig},
		{name: "nil recorder", opt: WithRecorder(nil), want: ErrInvalidConfig},
		{name: "nil deny handler", opt: WithLimitExceededHandler(nil), want: ErrInvalidConfig},
		{name: "nil error handler", opt: WithErrorHandler(nil), want: ErrInvalidConfig},
		{name: "missing config file", opt: WithConfigFile("/nonexistent.yaml"), want: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateLimiter(tt.opt)
			if err == nil {
				t.Fatal("NewRateLimiter() expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWithSweepInterval(t *testing.T) {
	limiter, err := NewRateLimiter(WithSweepInterval(time.Minute))
	if err != nil {
		t.Fatalf("NewRateLimiter() failed: %v", err)
	}

	rl := limiter.(*rateLimiter)
	if rl.sweepInterval != time.Minute {
		t.Errorf("sweepInterval = %v, want 1m", rl.sweepInterval)
	}
}

func TestSweepIntervalFromConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.SweepInterval = "45s"

	limiter, err := NewRateLimiter(WithConfig(cfg))
	if err != nil {
		t.Fatalf("NewRateLimiter() failed: %v", err)
	}

	rl := limiter.(*rateLimiter)
	if rl.sweepInterval != 45*time.Second {
		t.Errorf("sweepInterval = %v, want 45s", rl.sweepInterval)
	}
}

func TestWithDefaults_OverridesConfigDefaults(t *testing.T) {
	limiter, err := NewRateLimiter(WithDefaults(7, 3))
	if err != nil {
		t.Fatalf("NewRateLimiter() failed: %v", err)
	}

	decision, err := limiter.Allow("user")
	if err != nil {
		t.Fatalf("Allow() failed: %v", err)
	}
	if decision.Limit != 7 {
		t.Errorf("Decision.Limit = %d, want 7", decision.Limit)
	}
}
