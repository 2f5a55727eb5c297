package itglue

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/infrastructure/resilience"
)

// classifyRegistryError implements the retry policy: timeouts, connection
// errors, 5xx and 429 are transient; every other 4xx is permanent.
func classifyRegistryError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	// A per-request timeout surfaces as a url.Error that also satisfies
	// errors.Is(err, context.DeadlineExceeded), so it must be recognized
	// before the context branch: the request timed out, the caller did not
	// give up. The retry loop itself stops when the caller's context is done.
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if isTransientStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isTransientStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// wrapRegistryError translates transport failures into domain error kinds
// once the retry budget has run out.
func wrapRegistryError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrUnauthorized) {
		return err
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return domain.WrapError(domain.ErrUnauthorized, operation, err)
		case isTransientStatus(statusErr.StatusCode):
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return err
	}

	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// statusCodeOf extracts the upstream HTTP status, 0 when the failure never
// produced a response.
func statusCodeOf(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// outcomeOf buckets an error for metrics labels.
func outcomeOf(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrTemporary):
		return "transient"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "unauthorized"
	case statusCodeOf(err) == http.StatusNotFound:
		return "not_found"
	case statusCodeOf(err) >= 400:
		return "client_error"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
