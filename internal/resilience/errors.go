package resilience

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies why a remote call failed.
type FailureKind int

const (
	// KindUnknown is any failure the transport could not classify
	// (unexpected status, undecodable body).
	KindUnknown FailureKind = iota
	// KindBadRequest means the remote rejected the request parameters (HTTP 400).
	KindBadRequest
	// KindRateLimited means the remote throttled us (HTTP 429).
	KindRateLimited
	// KindNetwork covers connectivity failures: dial errors, resets, timeouts.
	KindNetwork
)

func (k FailureKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k FailureKind) Retryable() bool {
	return k != KindBadRequest
}

// Failure is the typed error produced by the transport layer.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", f.Kind, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err with an explicit kind.
func NewFailure(kind FailureKind, statusCode int, err error) *Failure {
	return &Failure{Kind: kind, StatusCode: statusCode, Err: err}
}

// NetworkFailure wraps an error returned by http.Client.Do.
func NetworkFailure(err error) *Failure {
	return &Failure{Kind: KindNetwork, Err: err}
}

// StatusFailure classifies a non-2xx HTTP response.
func StatusFailure(statusCode int, err error) *Failure {
	return &Failure{Kind: KindForStatus(statusCode), StatusCode: statusCode, Err: err}
}

// KindForStatus maps an HTTP status code to a failure kind.
func KindForStatus(statusCode int) FailureKind {
	switch statusCode {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUnknown
	}
}

// KindOf returns the kind of the first Failure in err's chain. Errors that
// carry no Failure are KindUnknown.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsRetryable is the default ShouldRetry predicate: every failure except a
// rejected request is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Retryable()
}
