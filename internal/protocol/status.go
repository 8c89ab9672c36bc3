package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/muurk/sanenet/internal/wire"
)

// Status is the result code that opens every checked response
type Status int32

const (
	StatusGood         Status = 0
	StatusUnsupported  Status = 1
	StatusCancelled    Status = 2
	StatusDeviceBusy   Status = 3
	StatusInval        Status = 4
	StatusEOF          Status = 5
	StatusJammed       Status = 6
	StatusNoDocs       Status = 7
	StatusCoverOpen    Status = 8
	StatusIOError      Status = 9
	StatusNoMem        Status = 10
	StatusAccessDenied Status = 11
)

// String returns the status name. Codes outside the known set are kept
// and reported as UNKNOWN(code).
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "GOOD"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusDeviceBusy:
		return "DEVICE_BUSY"
	case StatusInval:
		return "INVAL"
	case StatusEOF:
		return "EOF"
	case StatusJammed:
		return "JAMMED"
	case StatusNoDocs:
		return "NO_DOCS"
	case StatusCoverOpen:
		return "COVER_OPEN"
	case StatusIOError:
		return "IO_ERROR"
	case StatusNoMem:
		return "NO_MEM"
	case StatusAccessDenied:
		return "ACCESS_DENIED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}

// IsKnown reports whether the code is one the protocol defines
func (s Status) IsKnown() bool {
	return s >= StatusGood && s <= StatusAccessDenied
}

// IsSuccess returns true if the status indicates success
func (s Status) IsSuccess() bool {
	return s == StatusGood
}

// Description returns a human-readable explanation of the status
func (s Status) Description() string {
	switch s {
	case StatusGood:
		return "operation completed successfully"
	case StatusUnsupported:
		return "operation is not supported"
	case StatusCancelled:
		return "operation was cancelled"
	case StatusDeviceBusy:
		return "device is busy, try again later"
	case StatusInval:
		return "data or argument is invalid"
	case StatusEOF:
		return "no more data available"
	case StatusJammed:
		return "document feeder jammed"
	case StatusNoDocs:
		return "document feeder out of documents"
	case StatusCoverOpen:
		return "scanner cover is open"
	case StatusIOError:
		return "error during device I/O"
	case StatusNoMem:
		return "out of memory"
	case StatusAccessDenied:
		return "access to resource has been denied"
	default:
		return fmt.Sprintf("unrecognized status code %d", int32(s))
	}
}

// StatusError reports a response whose status was not GOOD
type StatusError struct {
	Status  Status
	Command string // Command whose response carried the status
}

func (e *StatusError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s: server returned %s (%s)", e.Command, e.Status, e.Status.Description())
	}
	return fmt.Sprintf("server returned %s (%s)", e.Status, e.Status.Description())
}

// IsStatusError checks if an error is a non-GOOD server status
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// StatusOf extracts the server status from err, if it carries one
func StatusOf(err error) (Status, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status, true
	}
	return 0, false
}

// ReadStatus reads a status word. Any well-formed code maps to a Status.
func ReadStatus(r io.Reader) (Status, error) {
	code, err := wire.ReadI32(r)
	if err != nil {
		return 0, err
	}
	return Status(code), nil
}

// CheckSuccess reads the status word and returns a *StatusError unless it
// is GOOD. Nothing past the status word is consumed.
func CheckSuccess(r io.Reader) error {
	status, err := ReadStatus(r)
	if err != nil {
		return err
	}
	if !status.IsSuccess() {
		return &StatusError{Status: status}
	}
	return nil
}
