package session

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

// NetworkErrorSubtype gives a more specific classification of connect failures
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the subtype
func (s NetworkErrorSubtype) String() string {
	switch s {
	case NetworkErrorGeneral:
		return "network error"
	case NetworkErrorTimeout:
		return "timeout"
	case NetworkErrorConnectionRefused:
		return "connection refused"
	case NetworkErrorDNS:
		return "DNS failure"
	case NetworkErrorHostUnreachable:
		return "host unreachable"
	case NetworkErrorNetworkUnreachable:
		return "network unreachable"
	default:
		return fmt.Sprintf("NetworkErrorSubtype(%d)", s)
	}
}

// NetworkError records why a connection to saned failed
type NetworkError struct {
	Subtype   NetworkErrorSubtype
	Addr      string
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Addr, e.Subtype, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError wraps a dial or I/O failure as a transport error
// carrying a *NetworkError with a specific subtype
func ClassifyNetworkError(err error, addr string) error {
	if err == nil {
		return nil
	}

	netErr := &NetworkError{
		Subtype:   NetworkErrorGeneral,
		Addr:      addr,
		Err:       err,
		Retryable: true,
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded):
		netErr.Subtype = NetworkErrorTimeout
	case errors.As(err, &dnsErr):
		netErr.Subtype = NetworkErrorDNS
		netErr.Retryable = dnsErr.IsTemporary
	case errors.As(err, &opErr):
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			netErr.Subtype = NetworkErrorConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			netErr.Subtype = NetworkErrorHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			netErr.Subtype = NetworkErrorNetworkUnreachable
		}
	}

	return wire.NewTransportError("connect to "+addr+" failed", netErr)
}

// SubtypeOf returns the network subtype carried by err, if any
func SubtypeOf(err error) (NetworkErrorSubtype, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Subtype, true
	}
	return NetworkErrorGeneral, false
}

// IsRetryable reports whether reconnecting might help
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable
	}
	if errors.Is(err, ErrBroken) {
		return true
	}
	if status, ok := protocol.StatusOf(err); ok {
		return status == protocol.StatusDeviceBusy
	}
	return wire.IsTransport(err)
}

// ShortErrorMessage returns a one-line summary suitable for a status bar
func ShortErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return "Device requires authorization"
	}

	if subtype, ok := SubtypeOf(err); ok {
		switch subtype {
		case NetworkErrorTimeout:
			return "saned not responding (timeout)"
		case NetworkErrorConnectionRefused:
			return "Connection refused - is saned listening?"
		case NetworkErrorDNS:
			return "Cannot resolve host name"
		case NetworkErrorHostUnreachable:
			return "Host unreachable"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error"
		}
	}

	if status, ok := protocol.StatusOf(err); ok {
		return status.Description()
	}

	switch {
	case errors.Is(err, ErrBroken):
		return "Session broken - reconnect"
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "saned stopped responding (timeout)"
	case wire.IsMalformed(err):
		return "Malformed reply from saned"
	case wire.IsTransport(err):
		return "Connection to saned lost"
	}
	return err.Error()
}

// TroubleshootingHint returns multi-line advice for err
func TroubleshootingHint(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return strings.Join([]string{
			"The daemon wants credentials before opening " + authErr.Device + ".",
			"This client does not perform authorization.",
			"Troubleshooting:",
			"  • Check the daemon's saned.users file",
			"  • Use a device that does not require a password",
		}, "\n")
	}

	if subtype, ok := SubtypeOf(err); ok {
		switch subtype {
		case NetworkErrorTimeout:
			return strings.Join([]string{
				"The host did not answer in time.",
				"Troubleshooting:",
				"  • Check that the host is powered on and reachable",
				"  • Check that a firewall is not dropping port 6566",
				"  • Try increasing --timeout",
			}, "\n")
		case NetworkErrorConnectionRefused:
			return strings.Join([]string{
				"The host refused the connection.",
				"Troubleshooting:",
				"  • Make sure saned is running (systemd socket or inetd)",
				"  • Verify the port number (default is 6566)",
			}, "\n")
		case NetworkErrorDNS:
			return strings.Join([]string{
				"Could not resolve the host name.",
				"Troubleshooting:",
				"  • Use the IP address instead of the host name",
				"  • Run 'sanectl scan' to find hosts on the local network",
			}, "\n")
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			return strings.Join([]string{
				"The host is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the address is correct",
				"  • Check that you are on the same network as the host",
			}, "\n")
		default:
			return strings.Join([]string{
				"Network communication failed.",
				"Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the host is powered on",
			}, "\n")
		}
	}

	if status, ok := protocol.StatusOf(err); ok {
		switch status {
		case protocol.StatusAccessDenied:
			return strings.Join([]string{
				"The daemon denied access.",
				"Troubleshooting:",
				"  • Add this client's address to saned.conf on the host",
			}, "\n")
		case protocol.StatusDeviceBusy:
			return "The device is in use by another client. Try again later."
		case protocol.StatusInval:
			return "The daemon rejected the request. Check the device name."
		default:
			return "The daemon reported: " + status.Description()
		}
	}

	if wire.IsMalformed(err) || errors.Is(err, ErrBroken) {
		return strings.Join([]string{
			"The daemon's reply could not be decoded, so the connection is unusable.",
			"Troubleshooting:",
			"  • Reconnect and try again",
			"  • Check that the host runs a compatible saned version",
		}, "\n")
	}

	return "An error occurred. Please check the error message for details."
}
