// Package errdefs defines the two failure classes of a latency run. Both are
// fatal: callers wrap them with context and classify with errors.Is.
package errdefs

import "errors"

var (
	// ErrInvalidArgument is returned for malformed or out-of-range input,
	// always before any memory is mapped.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhaustion is returned when the platform refuses a mapping,
	// a scratch buffer or the measurement alarm.
	ErrResourceExhaustion = errors.New("resource exhaustion")
)
