package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"tolk/internal/services"
)

// statusMarker maps an HTTP status to the services marker describing whether
// the failure is worth retrying.
func statusMarker(status int) error {
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return services.ErrTransient
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusNotFound:
		return services.ErrConfiguration
	default:
		return services.ErrValidation
	}
}

// classifyStatus wraps err with the marker for status.
func classifyStatus(backend string, status int, err error) error {
	return services.Wrap(statusMarker(status), "translate", backend, fmt.Sprintf("http %d", status), err)
}

// classifyTransport tags transport-level failures. Context cancellation is
// returned unchanged so callers can stop instead of retrying.
func classifyTransport(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "translate", backend, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "translate", backend, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "translate", backend, "request failed", err)
}
