package repository

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidQuery is returned when a candidate query cannot be built.
	ErrInvalidQuery = errors.New("invalid candidate query")
)
