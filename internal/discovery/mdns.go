package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/sanenet/internal/logging"
)

const (
	// ServiceType is the DNS-SD service type saned registers through Avahi
	ServiceType = "_sane-port._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for host discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an announcement carries no port
	DefaultPort = 6566
)

// Scanner handles mDNS host discovery
type Scanner struct {
	// Timeout is the maximum time to wait for announcements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for saned hosts until the timeout expires or ctx is done.
// Hosts are returned sorted by instance name, one entry per instance and address.
func (s *Scanner) Scan(ctx context.Context) ([]*Host, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		seen  = make(map[string]*Host)
		order []string
	)

	err := s.browse(ctx, func(host *Host) bool {
		mu.Lock()
		defer mu.Unlock()
		if _, dup := seen[host.key()]; !dup {
			seen[host.key()] = host
			order = append(order, host.key())
			logging.Debug("saned host discovered",
				zap.String("instance", host.Instance),
				zap.String("address", host.Address()),
			)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	hosts := make([]*Host, 0, len(order))
	for _, k := range order {
		hosts = append(hosts, seen[k])
	}
	sortHosts(hosts)
	return hosts, nil
}

// FindHost waits for the named instance to announce itself
func (s *Scanner) FindHost(ctx context.Context, instance string) (*Host, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Host, 1)
	err := s.browse(ctx, func(host *Host) bool {
		if !strings.EqualFold(host.Instance, instance) {
			return true
		}
		select {
		case found <- host:
		default:
		}
		cancel()
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case host := <-found:
		return host, nil
	case <-ctx.Done():
		select {
		case host := <-found:
			return host, nil
		default:
		}
		return nil, fmt.Errorf("saned instance %q not found within %s", instance, s.Timeout)
	}
}

// browse starts a zeroconf browse and feeds parsed hosts to visit until it
// returns false
func (s *Scanner) browse(ctx context.Context, visit func(*Host) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			host := parseServiceEntry(entry, time.Now())
			if host == nil {
				continue
			}
			if !visit(host) {
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Host.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry, now time.Time) *Host {
	if entry == nil {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		if addr != nil {
			ip = addr.String()
			break
		}
	}
	if ip == "" {
		for _, addr := range entry.AddrIPv6 {
			if addr != nil {
				ip = addr.String()
				break
			}
		}
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port <= 0 {
		port = DefaultPort
	}

	instance := unescapeInstance(entry.Instance)
	if instance == "" {
		instance = strings.TrimSuffix(entry.HostName, ".")
	}

	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		if txt == "" {
			continue
		}
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Host{
		Instance:     instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: now,
	}
}

// unescapeInstance removes DNS label escaping ("saned\ on\ pc" -> "saned on pc")
func unescapeInstance(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func sortHosts(hosts []*Host) {
	sort.SliceStable(hosts, func(i, j int) bool {
		if hosts[i].Instance != hosts[j].Instance {
			return hosts[i].Instance < hosts[j].Instance
		}
		return hosts[i].IP < hosts[j].IP
	})
}
