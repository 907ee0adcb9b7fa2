package snykapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// Kind classifies an API failure into the categories callers act on.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthFailure
	KindNotFound
	KindRateLimited
	KindNetwork
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth failure"
	case KindNotFound:
		return "not found"
	case KindRateLimited:
		return "rate limited"
	case KindNetwork:
		return "network error"
	case KindServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by all Client operations.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string

	// RetryAfter carries the server's retry hint for rate-limited
	// responses; zero when the server did not send one.
	RetryAfter time.Duration

	cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the Kind of err, or KindUnknown when err is not an API
// error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is a transient API failure that may
// succeed when repeated.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetwork, KindServerError:
		return true
	default:
		return false
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthFailure
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindServerError
	}
}
