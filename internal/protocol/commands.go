package protocol

import (
	"fmt"
	"io"

	"github.com/muurk/sanenet/internal/wire"
)

// ProtocolVersionCode is the version word sent by Init: major 1, minor 0,
// build 3
const ProtocolVersionCode uint32 = 0x01000003

// initWord opens the Init request. The daemon reads it in the position
// every other request carries its opcode.
const initWord int32 = 0

// Command opcodes
const (
	OpListDevices          int32 = 1
	OpOpenDevice           int32 = 2
	OpCloseDevice          int32 = 3
	OpGetOptionDescriptors int32 = 4
)

// Command names used in errors and logs
const (
	CmdInit                 = "init"
	CmdListDevices          = "list devices"
	CmdOpenDevice           = "open device"
	CmdCloseDevice          = "close device"
	CmdGetOptionDescriptors = "get option descriptors"
)

// VersionMajor returns the major component of a version word
func VersionMajor(v uint32) uint8 { return uint8(v >> 24) }

// VersionMinor returns the minor component of a version word
func VersionMinor(v uint32) uint8 { return uint8(v >> 16) }

// VersionBuild returns the build component of a version word
func VersionBuild(v uint32) uint16 { return uint16(v) }

// FormatVersion renders a version word as major.minor.build
func FormatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor(v), VersionMinor(v), VersionBuild(v))
}

// Init opens the session: it sends the init word, the protocol version
// and clientName, checks the status and returns the version the server
// reports. It must be the first exchange on a stream.
func Init(rw io.ReadWriter, clientName string) (uint32, error) {
	if err := wire.WriteI32(rw, initWord); err != nil {
		return 0, commandError(CmdInit, err)
	}
	if err := wire.WriteU32(rw, ProtocolVersionCode); err != nil {
		return 0, commandError(CmdInit, err)
	}
	if err := wire.WriteString(rw, clientName); err != nil {
		return 0, commandError(CmdInit, err)
	}

	if err := checkSuccess(rw, CmdInit); err != nil {
		return 0, err
	}

	version, err := wire.ReadU32(rw)
	if err != nil {
		return 0, commandError(CmdInit, err)
	}
	return version, nil
}

// ListDevices returns the devices the server exports, in the order sent
func ListDevices(rw io.ReadWriter) ([]Device, error) {
	if err := wire.WriteI32(rw, OpListDevices); err != nil {
		return nil, commandError(CmdListDevices, err)
	}

	if err := checkSuccess(rw, CmdListDevices); err != nil {
		return nil, err
	}

	it, err := wire.NewArrayIterator(rw, wire.DecodePointer[Device](decodeDevice))
	if err != nil {
		return nil, commandError(CmdListDevices, err)
	}

	devices := make([]Device, 0, min(it.Len(), 256))
	for it.Next() {
		if dev, ok := it.Value().Get(); ok {
			devices = append(devices, dev)
		}
	}
	if err := it.Err(); err != nil {
		return nil, commandError(CmdListDevices, err)
	}
	return devices, nil
}

// OpenDevice opens dev by name. When the server asks for authorization
// the result carries the resource and no handle.
func OpenDevice(rw io.ReadWriter, dev Device) (OpenResult, error) {
	if err := wire.WriteI32(rw, OpOpenDevice); err != nil {
		return OpenResult{}, commandError(CmdOpenDevice, err)
	}
	if err := wire.WriteString(rw, dev.Name); err != nil {
		return OpenResult{}, commandError(CmdOpenDevice, err)
	}

	if err := checkSuccess(rw, CmdOpenDevice); err != nil {
		return OpenResult{}, err
	}

	handle, err := wire.ReadI32(rw)
	if err != nil {
		return OpenResult{}, commandError(CmdOpenDevice, err)
	}
	resource, err := wire.ReadOptionalString(rw)
	if err != nil {
		return OpenResult{}, commandError(CmdOpenDevice, err)
	}

	if res, ok := resource.Get(); ok {
		return AuthRequiredResult(res), nil
	}
	return HandleResult(Handle(handle)), nil
}

// CloseDevice releases h. The reply is a single word with no status, so
// only stream faults are reported.
func CloseDevice(rw io.ReadWriter, h Handle) error {
	if err := wire.WriteI32(rw, OpCloseDevice); err != nil {
		return commandError(CmdCloseDevice, err)
	}
	if err := wire.WriteI32(rw, int32(h)); err != nil {
		return commandError(CmdCloseDevice, err)
	}

	if _, err := wire.ReadI32(rw); err != nil {
		return commandError(CmdCloseDevice, err)
	}
	return nil
}

// GetOptionDescriptors returns the option descriptors of h. Unlike
// ListDevices the absent entries are kept: callers see exactly what the
// server sent.
func GetOptionDescriptors(rw io.ReadWriter, h Handle) ([]wire.Optional[OptionDescriptor], error) {
	if err := wire.WriteI32(rw, OpGetOptionDescriptors); err != nil {
		return nil, commandError(CmdGetOptionDescriptors, err)
	}
	if err := wire.WriteI32(rw, int32(h)); err != nil {
		return nil, commandError(CmdGetOptionDescriptors, err)
	}

	it, err := wire.NewArrayIterator(rw, wire.DecodePointer[OptionDescriptor](decodeOptionDescriptor))
	if err != nil {
		return nil, commandError(CmdGetOptionDescriptors, err)
	}

	options := make([]wire.Optional[OptionDescriptor], 0, min(it.Len(), 256))
	for it.Next() {
		options = append(options, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, commandError(CmdGetOptionDescriptors, err)
	}
	return options, nil
}

func checkSuccess(r io.Reader, command string) error {
	err := CheckSuccess(r)
	if err == nil {
		return nil
	}
	if statusErr, ok := err.(*StatusError); ok {
		statusErr.Command = command
		return statusErr
	}
	return commandError(command, err)
}

func commandError(command string, err error) error {
	return fmt.Errorf("%s: %w", command, err)
}
