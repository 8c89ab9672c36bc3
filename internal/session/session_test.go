package session

import (
	"context"
	"errors"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/sanedtest"
	"github.com/muurk/sanenet/internal/wire"
)

var testDevices = []protocol.Device{
	{Name: "net:host:x100", Vendor: "Acme", Model: "X100", Kind: "flatbed scanner"},
	{Name: "net:host:x200", Vendor: "Acme", Model: "X200", Kind: "sheetfed scanner"},
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ClientName = "tester"
	opts.IOTimeout = 2 * time.Second
	return opts
}

func TestSessionFullFlow(t *testing.T) {
	saned := sanedtest.New()
	saned.Devices = testDevices
	saned.Options = []protocol.OptionDescriptor{
		{Name: "", Title: "Number of options", Type: protocol.TypeInt, Size: 4, Cap: protocol.CapSoftDetect},
		{Name: "resolution", Title: "Scan resolution", Type: protocol.TypeInt, Unit: protocol.UnitDPI, Size: 4, Cap: protocol.CapSoftSelect | protocol.CapSoftDetect},
	}
	conn := saned.Pipe(t)

	s := New(conn, "pipe", testOptions())
	defer s.Close()

	version, err := s.Init()
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if version != protocol.ProtocolVersionCode {
		t.Errorf("Init() version = %#x, want %#x", version, protocol.ProtocolVersionCode)
	}
	if s.ServerVersion() != version {
		t.Errorf("ServerVersion() = %#x, want %#x", s.ServerVersion(), version)
	}

	devices, err := s.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if !reflect.DeepEqual(devices, testDevices) {
		t.Errorf("ListDevices() = %+v, want %+v", devices, testDevices)
	}

	result, err := s.OpenDevice(devices[0])
	if err != nil {
		t.Fatalf("OpenDevice() error = %v", err)
	}
	handle, ok := result.Handle()
	if !ok || handle != 7 {
		t.Fatalf("OpenDevice() = %v, want handle 7", result)
	}

	options, err := s.OptionDescriptors(handle)
	if err != nil {
		t.Fatalf("OptionDescriptors() error = %v", err)
	}
	if len(options) != 3 {
		t.Fatalf("OptionDescriptors() returned %d entries, want 3", len(options))
	}
	if opt, ok := options[1].Get(); !ok || opt.Name != "resolution" || opt.Unit != protocol.UnitDPI {
		t.Errorf("options[1] = %v, want resolution in dpi", options[1])
	}
	if options[2].IsPresent() {
		t.Errorf("options[2] = %v, want terminator", options[2])
	}

	if err := s.CloseDevice(handle); err != nil {
		t.Fatalf("CloseDevice() error = %v", err)
	}

	clientName, opened, closed := saned.ClientName(), saned.Opened(), saned.Closed()
	if clientName != "tester" {
		t.Errorf("server saw client name %q, want %q", clientName, "tester")
	}
	if !reflect.DeepEqual(opened, []string{"net:host:x100"}) {
		t.Errorf("server saw opens %v", opened)
	}
	if !reflect.DeepEqual(closed, []int32{7}) {
		t.Errorf("server saw closes %v", closed)
	}
	if s.Broken() != nil {
		t.Errorf("Broken() = %v, want nil", s.Broken())
	}
}

func TestSessionRequiresInit(t *testing.T) {
	conn := sanedtest.New().Pipe(t)
	s := New(conn, "pipe", testOptions())

	if _, err := s.ListDevices(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListDevices() before Init error = %v, want ErrNotInitialized", err)
	}
	if err := s.CloseDevice(1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CloseDevice() before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestSessionInitOnlyOnce(t *testing.T) {
	saned := sanedtest.New()
	conn := saned.Pipe(t)
	s := New(conn, "pipe", testOptions())

	if _, err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := s.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestSessionDefaultClientName(t *testing.T) {
	saned := sanedtest.New()
	conn := saned.Pipe(t)
	s := New(conn, "pipe", Options{IOTimeout: 2 * time.Second})

	if _, err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if name := saned.ClientName(); name != DefaultClientName {
		t.Errorf("client name = %q, want %q", name, DefaultClientName)
	}
}

func TestSessionBrokenAfterMalformedReply(t *testing.T) {
	saned := sanedtest.New()
	saned.GarbageList = true
	conn := saned.Pipe(t)
	s := New(conn, "pipe", testOptions())

	if _, err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, err := s.ListDevices()
	if !wire.IsMalformed(err) {
		t.Fatalf("ListDevices() error = %v, want malformed", err)
	}
	if s.Broken() == nil {
		t.Fatal("Broken() = nil after malformed reply")
	}

	_, err = s.ListDevices()
	if !errors.Is(err, ErrBroken) {
		t.Errorf("ListDevices() on broken session error = %v, want ErrBroken", err)
	}
	if !IsRetryable(err) {
		t.Errorf("IsRetryable(%v) = false, want true", err)
	}
}

func TestSessionBrokenAfterStatusError(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(d *sanedtest.Daemon)
		command func(s *Session) error
		want    protocol.Status
	}{
		{
			name:  "failed open",
			setup: func(d *sanedtest.Daemon) { d.OpenStatus = protocol.StatusDeviceBusy },
			command: func(s *Session) error {
				_, err := s.OpenDevice(testDevices[0])
				return err
			},
			want: protocol.StatusDeviceBusy,
		},
		{
			name:  "failed list",
			setup: func(d *sanedtest.Daemon) { d.ListStatus = protocol.StatusNoMem },
			command: func(s *Session) error {
				_, err := s.ListDevices()
				return err
			},
			want: protocol.StatusNoMem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saned := sanedtest.New()
			saned.Devices = testDevices
			tt.setup(saned)
			// TCP buffers the unread rest of the reply, as a real saned would
			addr := saned.Listen(t)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s, err := DialAndInit(ctx, addr, testOptions())
			if err != nil {
				t.Fatalf("DialAndInit() error = %v", err)
			}
			defer s.Close()

			err = tt.command(s)
			if status, ok := protocol.StatusOf(err); !ok || status != tt.want {
				t.Fatalf("command error = %v, want %v", err, tt.want)
			}
			if s.Broken() == nil {
				t.Fatal("Broken() = nil after a status error")
			}

			devices, err := s.ListDevices()
			if !errors.Is(err, ErrBroken) {
				t.Fatalf("ListDevices() after status error = %v, %v; want ErrBroken", devices, err)
			}
		})
	}
}

func TestSessionIOTimeout(t *testing.T) {
	saned := sanedtest.New()
	saned.Silent = true
	conn := saned.Pipe(t)

	opts := testOptions()
	opts.IOTimeout = 50 * time.Millisecond
	s := New(conn, "pipe", opts)

	_, err := s.Init()
	if !wire.IsTransport(err) {
		t.Fatalf("Init() error = %v, want transport error", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("Init() error = %v, want deadline exceeded", err)
	}
	if s.Broken() == nil {
		t.Error("Broken() = nil after timeout")
	}
	if got := ShortErrorMessage(err); got != "saned stopped responding (timeout)" {
		t.Errorf("ShortErrorMessage() = %q", got)
	}
}

func TestSessionClosed(t *testing.T) {
	conn := sanedtest.New().Pipe(t)
	s := New(conn, "pipe", testOptions())

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := s.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("Init() after Close error = %v, want ErrClosed", err)
	}
}

func TestWithDevice(t *testing.T) {
	saned := sanedtest.New()
	saned.Devices = testDevices
	conn := saned.Pipe(t)
	s := New(conn, "pipe", testOptions())
	if _, err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	fnErr := errors.New("callback failed")
	var seen protocol.Handle
	err := s.WithDevice(testDevices[1], func(h protocol.Handle) error {
		seen = h
		return fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Errorf("WithDevice() error = %v, want callback error", err)
	}
	if seen != 7 {
		t.Errorf("callback handle = %d, want 7", seen)
	}

	opened, closed := saned.Opened(), saned.Closed()
	if !reflect.DeepEqual(opened, []string{"net:host:x200"}) {
		t.Errorf("opened = %v", opened)
	}
	if !reflect.DeepEqual(closed, []int32{7}) {
		t.Errorf("closed = %v, want handle closed after callback error", closed)
	}
}

func TestWithDeviceAuthRequired(t *testing.T) {
	saned := sanedtest.New()
	saned.Resource = "net:host:x100$MD5"
	conn := saned.Pipe(t)
	s := New(conn, "pipe", testOptions())
	if _, err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	called := false
	err := s.WithDevice(testDevices[0], func(protocol.Handle) error {
		called = true
		return nil
	})

	var authErr *AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("WithDevice() error = %v, want *AuthRequiredError", err)
	}
	if authErr.Resource != "net:host:x100$MD5" || authErr.Device != "net:host:x100" {
		t.Errorf("AuthRequiredError = %+v", authErr)
	}
	if called {
		t.Error("callback ran without a handle")
	}
	if closed := saned.Closed(); len(closed) != 0 {
		t.Errorf("closed = %v, want nothing closed", closed)
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "localhost:6566"},
		{"scanhost", "scanhost:6566"},
		{"  scanhost  ", "scanhost:6566"},
		{"scanhost:7000", "scanhost:7000"},
		{"192.168.1.20", "192.168.1.20:6566"},
		{"::1", "[::1]:6566"},
		{"[::1]", "[::1]:6566"},
		{"[::1]:7000", "[::1]:7000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeAddress(tt.in); got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDialAndInit(t *testing.T) {
	saned := sanedtest.New()
	saned.Version = 0x01000002
	saned.Devices = testDevices
	addr := saned.Listen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := DialAndInit(ctx, addr, testOptions())
	if err != nil {
		t.Fatalf("DialAndInit() error = %v", err)
	}
	defer s.Close()

	if s.ServerVersion() != 0x01000002 {
		t.Errorf("ServerVersion() = %#x", s.ServerVersion())
	}
	devices, err := s.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("ListDevices() returned %d devices, want 2", len(devices))
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = Dial(context.Background(), addr, testOptions())
	if err == nil {
		t.Fatal("Dial() to a closed port succeeded")
	}
	if !wire.IsTransport(err) {
		t.Errorf("Dial() error = %v, want transport error", err)
	}
	if subtype, ok := SubtypeOf(err); !ok || subtype != NetworkErrorConnectionRefused {
		t.Errorf("SubtypeOf() = %v, %v, want connection refused", subtype, ok)
	}
}

func TestFetchDevicesAndOptions(t *testing.T) {
	saned := sanedtest.New()
	saned.Handle = 3
	saned.Devices = testDevices
	saned.Options = []protocol.OptionDescriptor{{Title: "Number of options", Type: protocol.TypeInt, Size: 4}}
	addr := saned.Listen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	list, err := FetchDevices(ctx, addr, testOptions())
	if err != nil {
		t.Fatalf("FetchDevices() error = %v", err)
	}
	if !reflect.DeepEqual(list.Devices, testDevices) {
		t.Errorf("FetchDevices() devices = %+v", list.Devices)
	}
	if list.Addr != addr {
		t.Errorf("FetchDevices() addr = %q, want %q", list.Addr, addr)
	}

	options, err := FetchOptions(ctx, addr, testDevices[0], testOptions())
	if err != nil {
		t.Fatalf("FetchOptions() error = %v", err)
	}
	if len(options) != 2 || !options[0].IsPresent() || options[1].IsPresent() {
		t.Errorf("FetchOptions() = %v, want one option and a terminator", options)
	}
}
