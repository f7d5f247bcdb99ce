// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrTooLarge means an uploaded document exceeds the size cap.
	ErrTooLarge = errors.New("payload too large")
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("not found")
)
