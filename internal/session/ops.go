package session

import (
	"context"

	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

// DeviceList is the result of FetchDevices
type DeviceList struct {
	Addr          string
	ServerVersion uint32
	Devices       []protocol.Device
}

// FetchDevices connects to addr, runs Init and ListDevices, and hangs up
func FetchDevices(ctx context.Context, addr string, opts Options) (*DeviceList, error) {
	s, err := DialAndInit(ctx, addr, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	devices, err := s.ListDevices()
	if err != nil {
		return nil, err
	}
	return &DeviceList{
		Addr:          s.RemoteAddr(),
		ServerVersion: s.ServerVersion(),
		Devices:       devices,
	}, nil
}

// FetchOptions connects to addr, opens dev, reads its option descriptors and
// closes the device again
func FetchOptions(ctx context.Context, addr string, dev protocol.Device, opts Options) ([]wire.Optional[protocol.OptionDescriptor], error) {
	s, err := DialAndInit(ctx, addr, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var options []wire.Optional[protocol.OptionDescriptor]
	err = s.WithDevice(dev, func(h protocol.Handle) error {
		var err error
		options, err = s.OptionDescriptors(h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}
