package download

import "errors"

var (
	// ErrInvalidInput is returned when the request list is empty or malformed.
	// The underlying model error is wrapped alongside it.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllFailed is returned when no item of a batch succeeded.
	ErrAllFailed = errors.New("all downloads failed")
)
