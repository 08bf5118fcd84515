package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure: timeout, refused connection,
// DNS failure or a canceled context.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network request failed: %s %s: %v", e.Op, e.URL, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode is 504 when the request ran out of time and 502 otherwise.
func (e *NetworkError) StatusCode() int {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// APIError reports a non-2xx answer from the inference server.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("inference server returned HTTP %d %s", e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
func (e *APIError) StatusCode() int { return http.StatusBadGateway }

// ParseError reports a success response whose body could not be decoded.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string   { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error   { return e.Err }
func (e *ParseError) StatusCode() int { return http.StatusBadGateway }

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAPIError reports whether err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNetworkError(err):
		return "network_error"
	case IsAPIError(err):
		return "api_error"
	case IsParseError(err):
		return "parse_error"
	default:
		return "error"
	}
}
