// Package gateway defines the failure taxonomy shared by the location and routing
// services and the caller-facing error shape they are mapped to.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/haulroute/haulroute/internal/provider/resilience"
)

// Error is the caller-facing failure: a message and the HTTP status it is served with.
type Error struct {
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.HTTPStatus, e.Message)
}

// Failure is a classified service failure. The set of implementations is closed:
// ValidationError, UpstreamHTTPError, UpstreamConnectionError and UnexpectedError.
type Failure interface {
	error
	failure()
}

// ValidationError reports caller input that is missing a required field.
// It is always detected before any upstream call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (*ValidationError) failure()        {}

// UpstreamHTTPError reports an upstream response with a non-success status.
type UpstreamHTTPError struct {
	Provider   string
	StatusCode int
	// Message is the most specific description the upstream body offered.
	Message string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}
func (*UpstreamHTTPError) failure() {}

// UpstreamConnectionError reports an upstream that could not be reached:
// refused connections, DNS failures, timeouts and open circuits.
type UpstreamConnectionError struct {
	Provider string
	Err      error
}

func (e *UpstreamConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Provider, e.Err)
}
func (e *UpstreamConnectionError) Unwrap() error { return e.Err }
func (*UpstreamConnectionError) failure()        {}

// UnexpectedError is everything else: undecodable bodies, request construction
// failures and programming errors.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Err == nil {
		return "unexpected error"
	}
	return e.Err.Error()
}
func (e *UnexpectedError) Unwrap() error { return e.Err }
func (*UnexpectedError) failure()        {}

// AsFailure lifts err into the taxonomy. Errors that already carry a Failure
// anywhere in their chain keep it; anything else becomes an UnexpectedError.
func AsFailure(err error) Failure {
	if err == nil {
		return nil
	}
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	return &UnexpectedError{Err: err}
}

// IsTransport reports whether err is a connection-level failure rather than
// an HTTP-level one.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, resilience.ErrCircuitOpen) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Kind returns a short label for the failure class of err, for logs and
// metric attributes.
func Kind(err error) string {
	switch AsFailure(err).(type) {
	case nil:
		return ""
	case *ValidationError:
		return "validation"
	case *UpstreamHTTPError:
		return "upstream_http"
	case *UpstreamConnectionError:
		return "upstream_connection"
	default:
		return "unexpected"
	}
}
