package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name: "saned with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "saned"},
				HostName:      "office-pc.local.",
				Port:          6566,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantInstance: "saned",
			wantIP:       "192.168.1.20",
			wantPort:     6566,
		},
		{
			name: "escaped instance name",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: `saned\ on\ office-pc`},
				HostName:      "office-pc.local.",
				Port:          6566,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantInstance: "saned on office-pc",
			wantIP:       "192.168.1.20",
			wantPort:     6566,
		},
		{
			name: "custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lab"},
				HostName:      "lab.local.",
				Port:          7000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantInstance: "lab",
			wantIP:       "10.0.0.5",
			wantPort:     7000,
		},
		{
			name: "no port defaults to 6566",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lab"},
				HostName:      "lab.local.",
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantInstance: "lab",
			wantIP:       "172.16.0.1",
			wantPort:     DefaultPort,
		},
		{
			name: "missing instance falls back to hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "attic.local.",
				Port:     6566,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.9")},
			},
			wantInstance: "attic.local",
			wantIP:       "192.168.1.9",
			wantPort:     6566,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6"},
				HostName:      "v6.local.",
				Port:          6566,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantInstance: "v6",
			wantIP:       "fe80::1",
			wantPort:     6566,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				HostName:      "dual.local.",
				Port:          6566,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantInstance: "dual",
			wantIP:       "192.168.1.50",
			wantPort:     6566,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local.",
				Port:          6566,
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := parseServiceEntry(tt.entry, now)

			if tt.wantNil {
				if host != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", host)
				}
				return
			}
			if host == nil {
				t.Fatal("parseServiceEntry() = nil, want host")
			}

			if host.Instance != tt.wantInstance {
				t.Errorf("host.Instance = %q, want %q", host.Instance, tt.wantInstance)
			}
			if host.IP != tt.wantIP {
				t.Errorf("host.IP = %v, want %v", host.IP, tt.wantIP)
			}
			if host.Port != tt.wantPort {
				t.Errorf("host.Port = %v, want %v", host.Port, tt.wantPort)
			}
			if host.Hostname != tt.entry.HostName {
				t.Errorf("host.Hostname = %v, want %v", host.Hostname, tt.entry.HostName)
			}
			if !host.DiscoveredAt.Equal(now) {
				t.Errorf("host.DiscoveredAt = %v, want %v", host.DiscoveredAt, now)
			}
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "saned"},
		HostName:      "office-pc.local.",
		Port:          6566,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          []string{"txtvers=1", "ty=SANE", "flag", "", "note=a=b"},
	}

	host := parseServiceEntry(entry, time.Now())
	if host == nil {
		t.Fatal("parseServiceEntry() = nil, want host")
	}

	want := map[string]string{
		"txtvers": "1",
		"ty":      "SANE",
		"flag":    "",
		"note":    "a=b",
	}
	if len(host.Metadata) != len(want) {
		t.Errorf("host.Metadata has %d entries, want %d: %v", len(host.Metadata), len(want), host.Metadata)
	}
	for key, value := range want {
		if got, ok := host.Metadata[key]; !ok {
			t.Errorf("host.Metadata missing key %q", key)
		} else if got != value {
			t.Errorf("host.Metadata[%q] = %q, want %q", key, got, value)
		}
	}
	if host.GetMetadata("ty") != "SANE" {
		t.Errorf("GetMetadata(ty) = %q", host.GetMetadata("ty"))
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestUnescapeInstance(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"saned", "saned"},
		{`saned\ on\ pc`, "saned on pc"},
		{`a\\b`, `a\b`},
		{`dot\.name`, "dot.name"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := unescapeInstance(tt.in); got != tt.want {
			t.Errorf("unescapeInstance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortHosts(t *testing.T) {
	hosts := []*Host{
		{Instance: "b", IP: "10.0.0.1"},
		{Instance: "a", IP: "10.0.0.9"},
		{Instance: "a", IP: "10.0.0.2"},
	}
	sortHosts(hosts)

	want := []string{"a/10.0.0.2", "a/10.0.0.9", "b/10.0.0.1"}
	for i, h := range hosts {
		if got := h.Instance + "/" + h.IP; got != want[i] {
			t.Errorf("hosts[%d] = %s, want %s", i, got, want[i])
		}
	}
}
