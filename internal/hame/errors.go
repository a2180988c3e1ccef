package hame

import (
	"errors"
	"fmt"
)

// Sentinel errors for device session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidScene is returned when a scene code is outside the
	// known set {0, 1, 2}.
	ErrInvalidScene = errors.New("hame: invalid scene")

	// ErrSessionClosed is returned by a status query when the event
	// loop has exited and no further status can arrive.
	ErrSessionClosed = errors.New("hame: device session closed")
)

// InvalidFormatError reports a status payload that is not valid text or
// does not follow the key=value,... grammar. It carries the original
// payload bytes for diagnostics; partial parse results are never kept.
type InvalidFormatError struct {
	Payload []byte
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("hame: expected valid device status, got: %q", e.Payload)
}

// MissingFieldError reports a protocol field required by a message kind
// that is absent from the payload.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("hame: field %q is required, but missing in the status message", e.Field)
}

// InvalidFieldError reports a protocol field whose value failed to parse.
// The underlying parse error is preserved for errors.Is/As.
type InvalidFieldError struct {
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("hame: field %q contains invalid data: %v", e.Field, e.Err)
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}
