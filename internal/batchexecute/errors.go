package batchexecute

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized represents a request rejected for lacking valid tokens.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTimedOut represents a call that exceeded the transport deadline.
var ErrTimedOut = errors.New("request timed out")

// BatchExecuteError represents an upstream call failure.
type BatchExecuteError struct {
	StatusCode int
	Message    string
}

func (e *BatchExecuteError) Error() string {
	return fmt.Sprintf("batchexecute error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *BatchExecuteError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// isRetryableError checks if a network error is retryable.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"TLS handshake timeout",
		"EOF",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"temporary failure",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// isRetryableStatus checks if an HTTP status code is retryable.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
