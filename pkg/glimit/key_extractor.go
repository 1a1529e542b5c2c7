package glimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// KeyExtractor extracts a rate limit identifier from an HTTP request.
// The identifier names the client (IP address, API key, user ID, ...).
type KeyExtractor func(*http.Request) (string, error)

// ExtractIP returns a KeyExtractor that uses the client's IP address from
// r.RemoteAddr.
func ExtractIP() KeyExtractor {
	return func(r *http.Request) (string, error) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr might not carry a port in some edge cases
			ip = r.RemoteAddr
		}
		if ip == "" {
			return "", fmt.Errorf("%w: empty IP address", ErrKeyExtractionFailed)
		}
		return "ip:" + ip, nil
	}
}

// ExtractIPWithProxy returns a KeyExtractor that considers proxy headers.
// It checks X-Forwarded-For and X-Real-IP before falling back to RemoteAddr,
// for deployments behind a reverse proxy or load balancer.
func ExtractIPWithProxy() KeyExtractor {
	plain := ExtractIP()
	return func(r *http.Request) (string, error) {
		// X-Forwarded-For can be a comma-separated list; the first entry is
		// the original client.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip := strings.TrimSpace(strings.Split(xff, ",")[0])
			if ip != "" {
				return "ip:" + ip, nil
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return "ip:" + xri, nil
		}

		return plain(r)
	}
}

// ExtractHeader returns a KeyExtractor that uses a specific HTTP header.
// Example: ExtractHeader("X-API-Key").
func ExtractHeader(headerName string) KeyExtractor {
	return func(r *http.Request) (string, error) {
		value := r.Header.Get(headerName)
		if value == "" {
			return "", fmt.Errorf("%w: header %s not found or empty", ErrKeyExtractionFailed, headerName)
		}
		return fmt.Sprintf("header:%s:%s", headerName, value), nil
	}
}

// ExtractBearer returns a KeyExtractor that uses the Bearer token from the
// Authorization header.
func ExtractBearer() KeyExtractor {
	return func(r *http.Request) (string, error) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			return "", fmt.Errorf("%w: Authorization header not found", ErrKeyExtractionFailed)
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("%w: invalid Authorization header format", ErrKeyExtractionFailed)
		}
		if parts[1] == "" {
			return "", fmt.Errorf("%w: empty bearer token", ErrKeyExtractionFailed)
		}

		return "bearer:" + parts[1], nil
	}
}

// ExtractComposite returns a KeyExtractor that tries the given extractors in
// order and returns the first key extracted, for fallback behavior such as
// "API key if present, otherwise IP".
func ExtractComposite(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) (string, error) {
		var lastErr error
		for _, extract := range extractors {
			key, err := extract(r)
			if err == nil {
				return key, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no extractors provided", ErrKeyExtractionFailed)
		}
		return "", lastErr
	}
}

// ParseKeyExtractor builds a KeyExtractor from a config selector string.
// Supported: "ip", "ip_proxy", "header:<name>", "bearer".
func ParseKeyExtractor(selector string) (KeyExtractor, error) {
	switch {
	case selector == "" || selector == "ip":
		return ExtractIP(), nil
	case selector == "ip_proxy":
		return ExtractIPWithProxy(), nil
	case selector == "bearer":
		return ExtractBearer(), nil
	case strings.HasPrefix(selector, "header:"):
		name := strings.TrimPrefix(selector, "header:")
		if name == "" {
			return nil, fmt.Errorf("%w: header extractor requires a header name", ErrInvalidConfig)
		}
		return ExtractHeader(name), nil
	default:
		return nil, fmt.Errorf("%w: unknown key extractor %q", ErrInvalidConfig, selector)
	}
}
