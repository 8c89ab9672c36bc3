package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores known saned hosts and application preferences.
type Registry struct {
	Version     int              `yaml:"version"`
	DefaultHost string           `yaml:"default_host,omitempty"` // Nickname used when --host is not given
	Hosts       map[string]*Host `yaml:"hosts,omitempty"`        // Keyed by nickname
	Preferences *Preferences     `yaml:"preferences,omitempty"`
}

// Host is a saned endpoint the user has saved or connected to
type Host struct {
	Address       string       `yaml:"address"`                  // host or host:port
	Instance      string       `yaml:"instance,omitempty"`       // mDNS instance name, when discovered
	LastSeen      time.Time    `yaml:"last_seen,omitempty"`      // Last successful session
	ServerVersion string       `yaml:"server_version,omitempty"` // Version reported by Init
	Devices       []DeviceMeta `yaml:"devices,omitempty"`        // Device list from the last session
}

// DeviceMeta is a cached device list entry
type DeviceMeta struct {
	Name   string `yaml:"name"`
	Vendor string `yaml:"vendor,omitempty"`
	Model  string `yaml:"model,omitempty"`
	Type   string `yaml:"type,omitempty"`
}

// Preferences represents application-wide user preferences.
// Timeouts are in seconds.
type Preferences struct {
	ClientName      string `yaml:"client_name,omitempty"`
	DialTimeout     int    `yaml:"dial_timeout"`
	IOTimeout       int    `yaml:"io_timeout"`
	DiscoverTimeout int    `yaml:"discover_timeout"`
	LogLevel        string `yaml:"log_level,omitempty"`
}

// DefaultPreferences returns the preferences used when none are stored
func DefaultPreferences() *Preferences {
	return &Preferences{
		ClientName:      "sanenet",
		DialTimeout:     5,
		IOTimeout:       30,
		DiscoverTimeout: 5,
	}
}

// DialTimeoutDuration returns DialTimeout as a duration
func (p *Preferences) DialTimeoutDuration() time.Duration {
	return seconds(p.DialTimeout)
}

// IOTimeoutDuration returns IOTimeout as a duration
func (p *Preferences) IOTimeoutDuration() time.Duration {
	return seconds(p.IOTimeout)
}

// DiscoverTimeoutDuration returns DiscoverTimeout as a duration
func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	return seconds(p.DiscoverTimeout)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Hosts:       make(map[string]*Host),
		Preferences: DefaultPreferences(),
	}
}

// GetHost retrieves a host by nickname.
// Returns nil if the host doesn't exist in the registry.
func (r *Registry) GetHost(nickname string) *Host {
	return r.Hosts[nickname]
}

// AddHost saves address under nickname, replacing any previous address.
// Cached device lists survive only if the address is unchanged.
func (r *Registry) AddHost(nickname, address string) (*Host, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("host %q: address is empty", nickname)
	}

	host := r.EnsureHost(nickname)
	if host.Address != address {
		host.Devices = nil
		host.ServerVersion = ""
	}
	host.Address = address
	return host, nil
}

// EnsureHost ensures a host entry exists in the registry.
// Returns the host entry (existing or newly created).
func (r *Registry) EnsureHost(nickname string) *Host {
	if r.Hosts == nil {
		r.Hosts = make(map[string]*Host)
	}
	if host, exists := r.Hosts[nickname]; exists {
		return host
	}
	host := &Host{}
	r.Hosts[nickname] = host
	return host
}

// RemoveHost deletes a host. It reports whether the host existed.
func (r *Registry) RemoveHost(nickname string) bool {
	if _, exists := r.Hosts[nickname]; !exists {
		return false
	}
	delete(r.Hosts, nickname)
	if r.DefaultHost == nickname {
		r.DefaultHost = ""
	}
	return true
}

// SetDefaultHost makes nickname the host used when none is given
func (r *Registry) SetDefaultHost(nickname string) error {
	if nickname != "" && r.Hosts[nickname] == nil {
		return fmt.Errorf("unknown host %q", nickname)
	}
	r.DefaultHost = nickname
	return nil
}

// RecordSession stores the result of a successful session with a host
func (r *Registry) RecordSession(nickname, serverVersion string, devices []DeviceMeta) {
	host := r.EnsureHost(nickname)
	host.LastSeen = time.Now()
	host.ServerVersion = serverVersion
	host.Devices = devices
}

// Resolve maps a nickname to its address. Anything else is returned
// unchanged; an empty name resolves to the default host.
func (r *Registry) Resolve(name string) (address, nickname string) {
	if name == "" {
		name = r.DefaultHost
	}
	if host := r.Hosts[name]; host != nil {
		return host.Address, name
	}
	return name, ""
}

// Nicknames returns the saved host nicknames in sorted order
func (r *Registry) Nicknames() []string {
	names := make([]string, 0, len(r.Hosts))
	for name := range r.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateNickname rejects names that could be mistaken for addresses
func ValidateNickname(nickname string) error {
	switch {
	case nickname == "":
		return fmt.Errorf("nickname is empty")
	case strings.ContainsAny(nickname, " \t\n:/[]"):
		return fmt.Errorf("nickname %q may not contain whitespace, ':', '/' or brackets", nickname)
	case strings.Contains(nickname, "."):
		return fmt.Errorf("nickname %q may not contain '.'", nickname)
	}
	return nil
}
