package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for recoverable musical input problems. Generators recover
// from these locally; they are exported so callers can classify warnings.
var (
	ErrDegradedInput    = errors.New("degraded input")
	ErrUnknownSymbol    = errors.New("unknown chord symbol")
	ErrRangeViolation   = errors.New("pitch outside playable range")
	ErrUnknownTechnique = errors.New("unknown development technique")
	ErrInvalidMeasures  = errors.New("measure count must be positive")
)

// ResourceError represents a failure to read or write an external resource
// (pattern files, corpus downloads, MIDI files). It is the only error class
// that propagates out of the composition core.
type ResourceError struct {
	Resource string // file path or URL
	Op       string // "read", "write", "fetch", "decode"
	Cause    error
}

func (e *ResourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Resource)
}

func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// NewResourceError creates a ResourceError
func NewResourceError(resource, op string, cause error) *ResourceError {
	return &ResourceError{
		Resource: resource,
		Op:       op,
		Cause:    cause,
	}
}

// IsResourceError reports whether err (or anything it wraps) is a ResourceError
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

// Degraded wraps a description of skipped input so it matches ErrDegradedInput
func Degraded(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegradedInput, fmt.Sprintf(format, args...))
}
