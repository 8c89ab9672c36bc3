package protocol

import (
	"fmt"
	"strings"
)

// Device identifies a scanner exported by the daemon
type Device struct {
	Name   string `json:"name"`   // Backend-qualified name used to open it (e.g., "net:192.168.1.20:pixma")
	Vendor string `json:"vendor"` // Manufacturer (e.g., "Canon")
	Model  string `json:"model"`  // Model name (e.g., "PIXMA MG5200")
	Kind   string `json:"type"`   // Device type (e.g., "flatbed scanner")
}

// String returns a one-line description of the device
func (d Device) String() string {
	return fmt.Sprintf("%s %s %s (%s)", d.Vendor, d.Model, d.Kind, d.Name)
}

// Handle identifies an open device on the server. The client does not
// track whether a handle has been closed.
type Handle int32

// OpenResult is the outcome of OpenDevice: either a usable handle or a
// resource that requires authorization. Exactly one of Handle and
// AuthRequired reports true.
type OpenResult struct {
	handle       Handle
	resource     string
	authRequired bool
}

// HandleResult builds a successful OpenResult
func HandleResult(h Handle) OpenResult {
	return OpenResult{handle: h}
}

// AuthRequiredResult builds an OpenResult that needs authorization for resource
func AuthRequiredResult(resource string) OpenResult {
	return OpenResult{resource: resource, authRequired: true}
}

// Handle returns the device handle when the open succeeded outright
func (r OpenResult) Handle() (Handle, bool) {
	if r.authRequired {
		return 0, false
	}
	return r.handle, true
}

// AuthRequired returns the resource to authorize when the server demands it
func (r OpenResult) AuthRequired() (string, bool) {
	return r.resource, r.authRequired
}

func (r OpenResult) String() string {
	if r.authRequired {
		return fmt.Sprintf("AuthRequired(%q)", r.resource)
	}
	return fmt.Sprintf("Handle(%d)", r.handle)
}

// ValueType is the type of an option's value
type ValueType int32

const (
	TypeBool   ValueType = 0
	TypeInt    ValueType = 1
	TypeFixed  ValueType = 2
	TypeString ValueType = 3
	TypeButton ValueType = 4
	TypeGroup  ValueType = 5
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFixed:
		return "fixed"
	case TypeString:
		return "string"
	case TypeButton:
		return "button"
	case TypeGroup:
		return "group"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// Unit is the physical unit of an option's value
type Unit int32

const (
	UnitNone        Unit = 0
	UnitPixel       Unit = 1
	UnitBit         Unit = 2
	UnitMM          Unit = 3
	UnitDPI         Unit = 4
	UnitPercent     Unit = 5
	UnitMicrosecond Unit = 6
)

// String returns the unit's symbol; UnitNone is the empty string
func (u Unit) String() string {
	switch u {
	case UnitNone:
		return ""
	case UnitPixel:
		return "px"
	case UnitBit:
		return "bit"
	case UnitMM:
		return "mm"
	case UnitDPI:
		return "dpi"
	case UnitPercent:
		return "%"
	case UnitMicrosecond:
		return "us"
	default:
		return fmt.Sprintf("unit(%d)", int32(u))
	}
}

// Capability is a bit set describing how an option may be used
type Capability int32

const (
	CapSoftSelect Capability = 1 << 0
	CapHardSelect Capability = 1 << 1
	CapSoftDetect Capability = 1 << 2
	CapEmulated   Capability = 1 << 3
	CapAutomatic  Capability = 1 << 4
	CapInactive   Capability = 1 << 5
	CapAdvanced   Capability = 1 << 6
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapSoftSelect, "soft-select"},
	{CapHardSelect, "hard-select"},
	{CapSoftDetect, "soft-detect"},
	{CapEmulated, "emulated"},
	{CapAutomatic, "automatic"},
	{CapInactive, "inactive"},
	{CapAdvanced, "advanced"},
}

// Has reports whether all bits of c are set
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

func (c Capability) String() string {
	var names []string
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ConstraintType selects which constraint payload follows a descriptor
type ConstraintType int32

const (
	ConstraintNone       ConstraintType = 0
	ConstraintRange      ConstraintType = 1
	ConstraintWordList   ConstraintType = 2
	ConstraintStringList ConstraintType = 3
)

func (c ConstraintType) String() string {
	switch c {
	case ConstraintNone:
		return "none"
	case ConstraintRange:
		return "range"
	case ConstraintWordList:
		return "word-list"
	case ConstraintStringList:
		return "string-list"
	default:
		return fmt.Sprintf("constraint(%d)", int32(c))
	}
}

// Range bounds a numeric option. Quant of zero means any value in range.
type Range struct {
	Min   int32 `json:"min"`
	Max   int32 `json:"max"`
	Quant int32 `json:"quant"`
}

// Constraint restricts the values an option accepts. Only the field
// matching Type is populated; Range may be nil if the server sent NULL.
type Constraint struct {
	Type       ConstraintType `json:"type"`
	Range      *Range         `json:"range,omitempty"`
	WordList   []int32        `json:"word_list,omitempty"`
	StringList []string       `json:"string_list,omitempty"`
}

// OptionDescriptor describes one configurable option of an open device.
// NULL strings on the wire decode as "".
type OptionDescriptor struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        ValueType  `json:"value_type"`
	Unit        Unit       `json:"unit"`
	Size        int32      `json:"size"`
	Cap         Capability `json:"cap"`
	Constraint  Constraint `json:"constraint"`
}

// IsActive reports whether the option currently applies
func (o OptionDescriptor) IsActive() bool {
	return !o.Cap.Has(CapInactive)
}

// ValueCount returns how many values the option holds. Word-sized types
// pack Size/4 values; strings hold one; buttons and groups hold none.
func (o OptionDescriptor) ValueCount() int {
	switch o.Type {
	case TypeBool, TypeInt, TypeFixed:
		return int(o.Size) / 4
	case TypeString:
		return 1
	default:
		return 0
	}
}

// Fixed is a signed 16.16 fixed-point number
type Fixed int32

const fixedScale = 1 << 16

// FixedFromFloat converts f to fixed point, truncating toward zero
func FixedFromFloat(f float64) Fixed {
	return Fixed(int32(f * fixedScale))
}

// Float64 converts the fixed-point value to a float
func (f Fixed) Float64() float64 {
	return float64(f) / fixedScale
}

func (f Fixed) String() string {
	return fmt.Sprintf("%g", f.Float64())
}
