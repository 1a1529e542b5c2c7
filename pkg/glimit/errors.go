package glimit

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCapacity is returned when a configured burst capacity is not positive
	ErrInvalidCapacity = errors.New("bucket capacity must be positive")

	// ErrInvalidRefillRate is returned when a configured refill rate is not positive
	ErrInvalidRefillRate = errors.New("refill rate must be positive")

	// ErrInvalidKey is returned when the rate limit identifier is invalid or empty
	ErrInvalidKey = errors.New("rate limit identifier cannot be empty")

	// ErrRegistryFailed is returned when a registry lookup could not be completed
	ErrRegistryFailed = errors.New("registry operation failed")

	// ErrKeyExtractionFailed is returned when key extraction from a request fails
	ErrKeyExtractionFailed = errors.New("failed to extract key from request")
)
