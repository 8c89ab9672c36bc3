// Package sanedtest provides an in-process saned for tests.
//
// A Daemon answers the five client commands from its fields. Serve it on
// one end of a net.Pipe with Pipe, or on a loopback listener with Listen:
//
//	d := sanedtest.New()
//	d.Devices = []protocol.Device{{Name: "test:0"}}
//	addr := d.Listen(t)
package sanedtest

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

// ErrUnexpectedOpcode is returned by Serve for requests it cannot answer
var ErrUnexpectedOpcode = errors.New("sanedtest: unexpected opcode")

// Daemon is a scripted saned. Set its fields before serving.
type Daemon struct {
	Version    uint32
	Devices    []protocol.Device
	ListStatus protocol.Status
	OpenStatus protocol.Status
	Handle     int32
	Resource   string // non-empty makes OpenDevice demand authorization
	Options    []protocol.OptionDescriptor

	// GarbageList makes ListDevices reply with a negative array count
	GarbageList bool
	// Silent makes the daemon read requests without replying
	Silent bool

	mu         sync.Mutex
	clientName string
	opened     []string
	closed     []int32
}

// New returns a daemon reporting the current protocol version with no devices
func New() *Daemon {
	return &Daemon{
		Version: protocol.ProtocolVersionCode,
		Handle:  7,
	}
}

// Pipe serves d on one end of a pipe and returns the other. Both ends are
// closed when the test ends.
func (d *Daemon) Pipe(t testing.TB) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	go d.report(t, d.Serve(server))
	return client
}

// Listen serves d on a loopback TCP listener and returns its address. Every
// accepted connection is served on its own goroutine.
func (d *Daemon) Listen(t testing.TB) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("sanedtest: listen: %v", err)
	}

	var wg sync.WaitGroup
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()
				d.report(t, d.Serve(conn))
			}()
		}
	}()
	return ln.Addr().String()
}

func (d *Daemon) report(t testing.TB, err error) {
	if errors.Is(err, ErrUnexpectedOpcode) {
		t.Error(err)
	}
}

// Serve answers requests on conn until it is closed or a request cannot be
// understood
func (d *Daemon) Serve(conn net.Conn) error {
	for {
		op, err := wire.ReadI32(conn)
		if err != nil {
			return nil
		}
		if err := d.respond(conn, op); err != nil {
			return err
		}
	}
}

func (d *Daemon) respond(conn net.Conn, op int32) error {
	switch op {
	case 0: // Init has no opcode; its first word is zero
		if _, err := wire.ReadU32(conn); err != nil {
			return err
		}
		name, err := wire.ReadString(conn)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.clientName = name
		d.mu.Unlock()
		if d.Silent {
			return nil
		}
		return words(conn, 0, int32(d.Version))

	case protocol.OpListDevices:
		if d.Silent {
			return nil
		}
		if d.GarbageList {
			return words(conn, 0, -1)
		}
		if d.ListStatus != protocol.StatusGood {
			// a failed list still carries an empty array
			return words(conn, int32(d.ListStatus), 0)
		}
		if err := words(conn, 0, int32(len(d.Devices)+1)); err != nil {
			return err
		}
		for _, dev := range d.Devices {
			if err := words(conn, 0); err != nil {
				return err
			}
			if err := texts(conn, dev.Name, dev.Vendor, dev.Model, dev.Kind); err != nil {
				return err
			}
		}
		return words(conn, 1)

	case protocol.OpOpenDevice:
		name, err := wire.ReadString(conn)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.opened = append(d.opened, name)
		d.mu.Unlock()
		if d.OpenStatus != protocol.StatusGood {
			// saned still sends the handle and a NULL resource
			return words(conn, int32(d.OpenStatus), 0, 0)
		}
		if err := words(conn, 0, d.Handle); err != nil {
			return err
		}
		if d.Resource == "" {
			return words(conn, 0)
		}
		return wire.WriteString(conn, d.Resource)

	case protocol.OpCloseDevice:
		h, err := wire.ReadI32(conn)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.closed = append(d.closed, h)
		d.mu.Unlock()
		return words(conn, 0)

	case protocol.OpGetOptionDescriptors:
		if _, err := wire.ReadI32(conn); err != nil {
			return err
		}
		if err := words(conn, int32(len(d.Options)+1)); err != nil {
			return err
		}
		for _, o := range d.Options {
			if err := writeOption(conn, o); err != nil {
				return err
			}
		}
		return words(conn, 1)

	default:
		return fmt.Errorf("%w %d", ErrUnexpectedOpcode, op)
	}
}

// ClientName is the name sent by the last Init
func (d *Daemon) ClientName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clientName
}

// Opened lists the device names passed to OpenDevice, in order
func (d *Daemon) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

// Closed lists the handles passed to CloseDevice, in order
func (d *Daemon) Closed() []int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int32(nil), d.closed...)
}

// writeOption encodes a present descriptor with its constraint
func writeOption(conn net.Conn, o protocol.OptionDescriptor) error {
	if err := words(conn, 0); err != nil {
		return err
	}
	if err := texts(conn, o.Name, o.Title, o.Description); err != nil {
		return err
	}
	c := o.Constraint
	if err := words(conn, int32(o.Type), int32(o.Unit), o.Size, int32(o.Cap), int32(c.Type)); err != nil {
		return err
	}

	switch c.Type {
	case protocol.ConstraintRange:
		if c.Range == nil {
			return words(conn, 1)
		}
		return words(conn, 0, c.Range.Min, c.Range.Max, c.Range.Quant)
	case protocol.ConstraintWordList:
		ws := append([]int32{int32(len(c.WordList) + 1), int32(len(c.WordList))}, c.WordList...)
		return words(conn, ws...)
	case protocol.ConstraintStringList:
		if err := words(conn, int32(len(c.StringList)+1)); err != nil {
			return err
		}
		if err := texts(conn, c.StringList...); err != nil {
			return err
		}
		return words(conn, 0)
	}
	return nil
}

func words(conn net.Conn, ws ...int32) error {
	for _, w := range ws {
		if err := wire.WriteI32(conn, w); err != nil {
			return err
		}
	}
	return nil
}

func texts(conn net.Conn, ss ...string) error {
	for _, s := range ss {
		if err := wire.WriteString(conn, s); err != nil {
			return err
		}
	}
	return nil
}
