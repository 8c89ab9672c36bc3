package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Host is a saned instance found on the local network
type Host struct {
	// Instance is the advertised service instance name (e.g., "saned on office-pc")
	Instance string

	// Hostname is the mDNS hostname (e.g., "office-pc.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the saned port (normally 6566)
	Port int

	// Metadata holds the TXT record key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the host answered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the host
func (h *Host) String() string {
	return fmt.Sprintf("%s (%s) at %s", h.Instance, h.Hostname, h.Address())
}

// Address returns the host:port to dial
func (h *Host) Address() string {
	return net.JoinHostPort(h.IP, strconv.Itoa(h.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (h *Host) GetMetadata(key string) string {
	if h.Metadata == nil {
		return ""
	}
	return h.Metadata[key]
}

// key identifies a host across repeated announcements
func (h *Host) key() string {
	return h.Instance + "|" + h.Address()
}
