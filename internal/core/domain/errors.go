package domain

import "errors"

var (
	// ErrBookNotFound covers both direct lookups and dangling cart
	// references. Never conflated with zero stock.
	ErrBookNotFound = errors.New("book not found")

	// ErrValidation marks malformed input rejected before any store write.
	ErrValidation = errors.New("validation failed")
)
