package normalizer

import "errors"

var (
	// ErrUnsupportedPayload is returned when the payload shape cannot hold a record.
	ErrUnsupportedPayload = errors.New("unsupported payload shape")
	// ErrMalformedPayload marks a field fragment that could not be fully
	// parsed. It is logged, never returned: the record is returned partial.
	ErrMalformedPayload = errors.New("malformed field fragment")
)
