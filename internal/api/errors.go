package api

import (
	"errors"
	"fmt"
)

// ErrUnsuccessful is returned when the backend answers 2xx with success:false.
var ErrUnsuccessful = errors.New("API returned unsuccessful response")

// TransportError wraps a network-level failure (DNS, connection, timeout, cancellation).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned for non-2xx responses. The message always embeds the status code.
type StatusError struct {
	StatusCode int
	Prefix     string
}

func (e *StatusError) Error() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "HTTP error! status"
	}
	return fmt.Sprintf("%s: %d", prefix, e.StatusCode)
}

// DecodeError is returned when the response body is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Outcome labels a request result for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var transport *TransportError
	var status *StatusError
	var decode *DecodeError
	switch {
	case errors.As(err, &transport):
		return "transport_error"
	case errors.As(err, &status):
		return "http_error"
	case errors.Is(err, ErrUnsuccessful):
		return "unsuccessful"
	case errors.As(err, &decode):
		return "decode_error"
	default:
		return "error"
	}
}
