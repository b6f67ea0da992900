package dedup

import "errors"

var (
	// ErrInFlightFailed is returned by a waiting caller when the in-flight
	// marker disappears without a cached result, meaning the executing side
	// failed or its marker expired.
	ErrInFlightFailed = errors.New("in-flight request failed or timed out")

	// ErrWaitTimeout is returned when a caller waited the full in-flight TTL
	// without the execution resolving either way.
	ErrWaitTimeout = errors.New("timeout waiting for in-flight request")
)
