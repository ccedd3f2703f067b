package llm

import "errors"

// Sentinel errors classifying upstream completion failures. Providers wrap
// these so callers can pick retry and HTTP mapping behavior with errors.Is.
var (
	// ErrUnauthorized: the API key was rejected. Never retried.
	ErrUnauthorized = errors.New("llm: unauthorized")

	// ErrRateLimited: the provider throttled us. Retried with backoff.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrUnavailable: transient upstream failure (5xx, timeout, connection
	// reset). Retried with backoff.
	ErrUnavailable = errors.New("llm: service unavailable")

	// ErrBadRequest: the request itself was malformed or rejected by
	// validation. Never retried.
	ErrBadRequest = errors.New("llm: bad request")

	// ErrUnknownModel: the requested model is not in the registry. Caught
	// before any upstream call.
	ErrUnknownModel = errors.New("llm: unknown model")
)

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// classifyStatus maps an upstream HTTP status to a taxonomy sentinel, or nil
// when the status carries no classification.
func classifyStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrUnavailable
	case status >= 400:
		return ErrBadRequest
	}
	return nil
}
