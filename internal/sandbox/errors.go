package sandbox

import "errors"

var (
	// ErrMalformedQuery is returned when a query statement cannot be parsed.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrInvalidLocator is returned for unknown or already consumed locators.
	ErrInvalidLocator = errors.New("invalid query locator")
)
