package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/sanenet/internal/logging"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

const (
	// DefaultPort is the port saned listens on
	DefaultPort = 6566

	// DefaultClientName is the name sent to the daemon by Init
	DefaultClientName = "sanenet"

	// DefaultDialTimeout is the default TCP connect timeout
	DefaultDialTimeout = 5 * time.Second

	// DefaultIOTimeout is the default deadline for one request/response exchange
	DefaultIOTimeout = 30 * time.Second
)

var (
	// ErrNotInitialized is returned by commands issued before Init
	ErrNotInitialized = errors.New("session not initialized: Init must be the first command")

	// ErrAlreadyInitialized is returned by a second Init on the same connection
	ErrAlreadyInitialized = errors.New("session already initialized")

	// ErrBroken is returned once a transport, decode or status failure has
	// left the connection out of step. The only recovery is a new connection.
	ErrBroken = errors.New("session broken: reconnect to continue")

	// ErrClosed is returned by commands issued after Close
	ErrClosed = errors.New("session closed")
)

// Options configures a session
type Options struct {
	// ClientName identifies this client to the daemon
	ClientName string

	// DialTimeout bounds the TCP connect (0 = no timeout)
	DialTimeout time.Duration

	// IOTimeout bounds each request/response exchange (0 = no deadline)
	IOTimeout time.Duration

	// NoDelay disables Nagle's algorithm; requests are small and latency bound
	NoDelay bool
}

// DefaultOptions returns the recommended options
func DefaultOptions() Options {
	return Options{
		ClientName:  DefaultClientName,
		DialTimeout: DefaultDialTimeout,
		IOTimeout:   DefaultIOTimeout,
		NoDelay:     true,
	}
}

// Session is one conversation with saned over an exclusively owned
// connection. It is not safe for concurrent use.
type Session struct {
	conn        net.Conn
	stream      io.ReadWriter
	addr        string
	opts        Options
	version     uint32
	initialized bool
	broken      error
	closed      bool
}

// NormalizeAddress adds the default saned port when addr has none
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return net.JoinHostPort("localhost", strconv.Itoa(DefaultPort))
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	host := strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}

// Dial connects to saned at addr. The session still needs Init.
func Dial(ctx context.Context, addr string, opts Options) (*Session, error) {
	addr = NormalizeAddress(addr)

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		logging.LogConnection(addr, "connect_failed")
		return nil, ClassifyNetworkError(err, addr)
	}

	if tcp, ok := conn.(*net.TCPConn); ok && opts.NoDelay {
		if err := tcp.SetNoDelay(true); err != nil {
			logging.Warn("Failed to disable Nagle's algorithm",
				zap.String("remote_addr", addr),
				zap.Error(err),
			)
		}
	}

	logging.LogConnection(addr, "connected")
	return New(conn, addr, opts), nil
}

// DialAndInit connects to addr and performs Init
func DialAndInit(ctx context.Context, addr string, opts Options) (*Session, error) {
	s, err := Dial(ctx, addr, opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.Init(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an established connection. addr is used for logging only.
func New(conn net.Conn, addr string, opts Options) *Session {
	if opts.ClientName == "" {
		opts.ClientName = DefaultClientName
	}
	return &Session{
		conn:   conn,
		stream: &tracingStream{rw: conn},
		addr:   addr,
		opts:   opts,
	}
}

// RemoteAddr returns the address the session talks to
func (s *Session) RemoteAddr() string {
	return s.addr
}

// ServerVersion returns the version word reported by Init
func (s *Session) ServerVersion() uint32 {
	return s.version
}

// Broken returns the failure that broke the session, or nil
func (s *Session) Broken() error {
	return s.broken
}

// Init performs the version exchange. It must be the first command.
func (s *Session) Init() (uint32, error) {
	if s.initialized {
		return 0, ErrAlreadyInitialized
	}

	var version uint32
	err := s.exchange(protocol.CmdInit, func(rw io.ReadWriter) error {
		v, err := protocol.Init(rw, s.opts.ClientName)
		version = v
		return err
	})
	if err != nil {
		return 0, err
	}

	s.version = version
	s.initialized = true
	logging.Info("Session initialized",
		zap.String("remote_addr", s.addr),
		zap.String("server_version", protocol.FormatVersion(version)),
	)
	return version, nil
}

// ListDevices returns the devices the daemon exports
func (s *Session) ListDevices() ([]protocol.Device, error) {
	var devices []protocol.Device
	err := s.exchange(protocol.CmdListDevices, func(rw io.ReadWriter) error {
		var err error
		devices, err = protocol.ListDevices(rw)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("Devices listed", zap.String("remote_addr", s.addr), zap.Int("count", len(devices)))
	return devices, nil
}

// OpenDevice opens dev
func (s *Session) OpenDevice(dev protocol.Device) (protocol.OpenResult, error) {
	var result protocol.OpenResult
	err := s.exchange(protocol.CmdOpenDevice, func(rw io.ReadWriter) error {
		var err error
		result, err = protocol.OpenDevice(rw, dev)
		return err
	})
	if err != nil {
		return protocol.OpenResult{}, err
	}
	logging.Debug("Device opened",
		zap.String("remote_addr", s.addr),
		zap.String("device", dev.Name),
		zap.Stringer("result", result),
	)
	return result, nil
}

// CloseDevice releases h on the server
func (s *Session) CloseDevice(h protocol.Handle) error {
	return s.exchange(protocol.CmdCloseDevice, func(rw io.ReadWriter) error {
		return protocol.CloseDevice(rw, h)
	})
}

// OptionDescriptors returns the option descriptors for h, absent entries included
func (s *Session) OptionDescriptors(h protocol.Handle) ([]wire.Optional[protocol.OptionDescriptor], error) {
	var options []wire.Optional[protocol.OptionDescriptor]
	err := s.exchange(protocol.CmdGetOptionDescriptors, func(rw io.ReadWriter) error {
		var err error
		options, err = protocol.GetOptionDescriptors(rw, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

// WithDevice opens dev, runs fn with its handle and closes it again. The
// device is closed even when fn fails, unless the session broke.
func (s *Session) WithDevice(dev protocol.Device, fn func(h protocol.Handle) error) error {
	result, err := s.OpenDevice(dev)
	if err != nil {
		return err
	}
	if resource, ok := result.AuthRequired(); ok {
		return &AuthRequiredError{Device: dev.Name, Resource: resource}
	}
	handle, _ := result.Handle()

	fnErr := fn(handle)
	if s.broken != nil {
		return fnErr
	}
	if err := s.CloseDevice(handle); err != nil {
		if fnErr != nil {
			return fnErr
		}
		return err
	}
	return fnErr
}

// Close closes the connection. Open handles are released by the daemon.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	logging.LogConnection(s.addr, "closed")
	return s.conn.Close()
}

// exchange runs one command with the session's deadline and bookkeeping
func (s *Session) exchange(command string, fn func(rw io.ReadWriter) error) error {
	if s.closed {
		return ErrClosed
	}
	if s.broken != nil {
		return fmt.Errorf("%w (cause: %v)", ErrBroken, s.broken)
	}
	if command != protocol.CmdInit && !s.initialized {
		return ErrNotInitialized
	}

	if s.opts.IOTimeout > 0 {
		if err := s.conn.SetDeadline(time.Now().Add(s.opts.IOTimeout)); err != nil {
			return wire.NewTransportError("failed to set deadline", err)
		}
	}

	start := time.Now()
	err := fn(s.stream)
	logging.LogCommand(s.addr, command, time.Since(start), err)

	if err != nil && breaksSession(err) {
		s.broken = err
		logging.Warn("Session broken",
			zap.String("remote_addr", s.addr),
			zap.String("command", command),
			zap.Error(err),
		)
	}
	return err
}

// breaksSession reports whether err leaves unread reply bytes in the
// stream. saned sends the whole reply even after a failed status, while
// the command layer stops at the status word, so status errors count too.
// CloseDevice and GetOptionDescriptors never report a status.
func breaksSession(err error) bool {
	return wire.IsTransport(err) || wire.IsMalformed(err) || protocol.IsStatusError(err)
}

// AuthRequiredError reports that opening a device needs authorization,
// which this client does not perform
type AuthRequiredError struct {
	Device   string
	Resource string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("device %s requires authorization for resource %q", e.Device, e.Resource)
}

// tracingStream dumps every read and write at debug level
type tracingStream struct {
	rw io.ReadWriter
}

func (t *tracingStream) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	if n > 0 {
		logging.LogRawBytes("saned -> client", p[:n])
	}
	return n, err
}

func (t *tracingStream) Write(p []byte) (int, error) {
	logging.LogRawBytes("client -> saned", p)
	return t.rw.Write(p)
}
