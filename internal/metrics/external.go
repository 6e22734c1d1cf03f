package metrics

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RecordExternalCall records one call to redis or object storage.
// target is "redis" or "s3"; operation names the command, e.g. "publish".
func (m *Metrics) RecordExternalCall(target, operation string, duration time.Duration, err error) {
	m.safeExecute("RecordExternalCall", func() {
		status := "success"
		if err != nil {
			status = "error"
			m.ExternalCallErrors.WithLabelValues(target, getErrorType(err)).Inc()
		}
		m.ExternalCallsTotal.WithLabelValues(target, operation, status).Inc()
		m.ExternalCallDuration.WithLabelValues(target, operation).Observe(duration.Seconds())
	})
}

// getErrorType buckets a client error into a low-cardinality label
func getErrorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection_refused"
	case strings.Contains(msg, "no such host"):
		return "dns_error"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timeout"
	case strings.Contains(msg, "EOF"), strings.Contains(msg, "connection reset"):
		return "connection_reset"
	case strings.Contains(msg, "TLS"), strings.Contains(msg, "certificate"):
		return "tls_error"
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "Forbidden"):
		return "forbidden"
	}
	return "other"
}
