package tui

import (
	"context"
	"time"

	"github.com/muurk/sanenet/internal/discovery"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/session"
	"github.com/muurk/sanenet/internal/wire"
)

// Backend performs the network work behind the browser
type Backend interface {
	Scan(ctx context.Context) ([]*discovery.Host, error)
	Devices(ctx context.Context, addr string) (*session.DeviceList, error)
	Options(ctx context.Context, addr string, dev protocol.Device) ([]wire.Optional[protocol.OptionDescriptor], error)
}

// SessionBackend opens a fresh session for every request
type SessionBackend struct {
	Session     session.Options
	ScanTimeout time.Duration
}

// Scan browses mDNS for saned hosts
func (b SessionBackend) Scan(ctx context.Context) ([]*discovery.Host, error) {
	scanner := discovery.NewScanner()
	if b.ScanTimeout > 0 {
		scanner.Timeout = b.ScanTimeout
	}
	return scanner.Scan(ctx)
}

// Devices lists the devices on addr
func (b SessionBackend) Devices(ctx context.Context, addr string) (*session.DeviceList, error) {
	return session.FetchDevices(ctx, addr, b.Session)
}

// Options reads the option descriptors of dev on addr
func (b SessionBackend) Options(ctx context.Context, addr string, dev protocol.Device) ([]wire.Optional[protocol.OptionDescriptor], error) {
	return session.FetchOptions(ctx, addr, dev, b.Session)
}
