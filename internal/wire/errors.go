package wire

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a codec failure
type ErrorType int

const (
	// ErrTypeTransport indicates an I/O fault on the stream (reset, short read/write, deadline)
	ErrTypeTransport ErrorType = iota
	// ErrTypeMalformed indicates bytes that do not decode as the expected wire type
	ErrTypeMalformed
	// ErrTypeLengthExceeded indicates a value too long to be framed by a 32-bit length word
	ErrTypeLengthExceeded
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeMalformed:
		return "Malformed Data"
	case ErrTypeLengthExceeded:
		return "Length Exceeded"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every read and write in this package. Once an Error
// has been returned mid-frame the stream position is undefined and the
// connection must be discarded.
type Error struct {
	Type    ErrorType // Category of error
	Message string    // What was being read or written
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a stream fault
func NewTransportError(message string, err error) *Error {
	return &Error{Type: ErrTypeTransport, Message: message, Err: err}
}

// NewMalformedError reports undecodable wire data
func NewMalformedError(message string, err error) *Error {
	return &Error{Type: ErrTypeMalformed, Message: message, Err: err}
}

// NewLengthExceededError reports a value whose length cannot be framed
func NewLengthExceededError(length, max int) *Error {
	return &Error{
		Type:    ErrTypeLengthExceeded,
		Message: fmt.Sprintf("length %d exceeds maximum of %d", length, max),
	}
}

func errorType(err error) (ErrorType, bool) {
	var wireErr *Error
	if errors.As(err, &wireErr) {
		return wireErr.Type, true
	}
	return 0, false
}

// IsTransport checks if an error is a stream fault
func IsTransport(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTransport
}

// IsMalformed checks if an error is a decode failure. Length-exceeded
// errors count as malformed data.
func IsMalformed(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeMalformed || t == ErrTypeLengthExceeded)
}

// IsLengthExceeded checks if an error is a length-exceeded failure
func IsLengthExceeded(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeLengthExceeded
}
