package http

import (
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure (DNS, refused connection, reset).
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a request that did not finish within the configured timeout.
type TimeoutError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout for %s", e.URL)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a response with a status outside 200-299.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// retryable reports whether a failed attempt may succeed when repeated.
// Client errors other than 429 are final.
func retryable(err error) bool {
	switch e := err.(type) {
	case *NetworkError, *TimeoutError:
		return true
	case *HTTPStatusError:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}
