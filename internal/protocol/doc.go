// Package protocol implements the client side of the SANE network
// protocol spoken by saned.
//
// This package defines the data model (devices, option descriptors,
// handles, status codes) and the request/response commands that list and
// open devices and read their option descriptors. Byte-level encoding is
// delegated to package wire.
//
// # Session Order
//
// A session is a strict sequence on one stream:
//
//	Init → ListDevices → OpenDevice → GetOptionDescriptors → CloseDevice
//
// Init must come first. OpenDevice yields the handle that
// GetOptionDescriptors and CloseDevice take. The client does not guard
// against reusing a handle after CloseDevice.
//
// # Message Layout
//
// Requests are an opcode word followed by parameters:
//   - Init: 0, version word 0x01000003, client name string
//   - ListDevices: 1
//   - OpenDevice: 2, device name string
//   - CloseDevice: 3, handle
//   - GetOptionDescriptors: 4, handle
//
// Init, ListDevices and OpenDevice replies start with a status word; when
// it is not GOOD nothing further is read. CloseDevice is answered by one
// word that is read and discarded. GetOptionDescriptors is answered by the
// descriptor array directly.
//
// # Usage Example
//
//	conn, err := net.Dial("tcp", "scanhost:6566")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	if _, err := protocol.Init(conn, "sanenet"); err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := protocol.ListDevices(conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := protocol.OpenDevice(conn, devices[0])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if resource, ok := result.AuthRequired(); ok {
//	    log.Fatalf("authorization required for %s", resource)
//	}
//	handle, _ := result.Handle()
//	defer protocol.CloseDevice(conn, handle)
//
// # Error Handling
//
// Commands return three kinds of error:
//   - *StatusError: the server answered with a status other than GOOD
//   - malformed data (wire.IsMalformed): the reply did not decode
//   - transport faults (wire.IsTransport): the stream failed
//
// None are retried. After a malformed or transport error the stream is
// out of step and must be closed; a StatusError leaves it usable.
//
// # Thread Safety
//
// Commands are stateless but a stream carries one conversation. Do not
// issue commands on the same stream from several goroutines.
package protocol
