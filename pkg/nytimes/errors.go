package nytimes

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorClass classifies a failed upstream call into one of the proxy-facing
// outcomes. Every non-200 response and every transport failure carries
// exactly one class.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses. The proxy built the
	// request, so upstream blaming the client means a bug on our side.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassUpstream represents 5xx responses.
	ErrorClassUpstream ErrorClass = "upstream"

	// ErrorClassTimeout represents a transport timeout with no response.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassAmbiguous covers everything outside the documented
	// contract: 201-299, 3xx, unparseable bodies, other transport errors.
	// Only HTTP 200 is a documented success for the upstream API, so
	// undocumented codes are failures until investigated.
	ErrorClassAmbiguous ErrorClass = "ambiguous"
)

// UpstreamError is the adapter's classified failure. StatusCode is zero when
// no response was received.
type UpstreamError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nyt %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("nyt %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps a non-200 upstream status code to its error class.
func ClassifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500 && statusCode < 600:
		return ErrorClassUpstream
	default:
		// 201-299 and 3xx land here. So would anything below 200.
		return ErrorClassAmbiguous
	}
}

// classifyTransportError distinguishes a timeout from any other failure to
// obtain a response.
func classifyTransportError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	return ErrorClassAmbiguous
}
