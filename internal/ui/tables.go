package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/sanenet/internal/discovery"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

// Column titles shared by the static tables and the browser
var (
	DeviceHeaders = []string{"#", "NAME", "VENDOR", "MODEL", "TYPE"}
	OptionHeaders = []string{"#", "NAME", "TITLE", "TYPE", "UNIT", "VALUES", "CAPABILITIES", "CONSTRAINT"}
	HostHeaders   = []string{"INSTANCE", "ADDRESS", "HOSTNAME"}
)

// absentOption marks a NULL entry in an option descriptor array
const absentOption = "(absent)"

// DeviceRows returns one row per device in DeviceHeaders order
func DeviceRows(devices []protocol.Device) [][]string {
	rows := make([][]string, len(devices))
	for i, d := range devices {
		rows[i] = []string{strconv.Itoa(i), d.Name, d.Vendor, d.Model, d.Kind}
	}
	return rows
}

// OptionRows returns one row per descriptor in OptionHeaders order.
// Absent entries keep their index so numbering matches the daemon's.
func OptionRows(options []wire.Optional[protocol.OptionDescriptor]) [][]string {
	rows := make([][]string, len(options))
	for i, o := range options {
		opt, ok := o.Get()
		if !ok {
			rows[i] = []string{strconv.Itoa(i), absentOption, "", "", "", "", "", ""}
			continue
		}
		rows[i] = []string{
			strconv.Itoa(i),
			opt.Name,
			opt.Title,
			opt.Type.String(),
			opt.Unit.String(),
			formatValueCount(opt),
			opt.Cap.String(),
			FormatConstraint(opt),
		}
	}
	return rows
}

// HostRows returns one row per discovered host in HostHeaders order
func HostRows(hosts []*discovery.Host) [][]string {
	rows := make([][]string, len(hosts))
	for i, h := range hosts {
		rows[i] = []string{h.Instance, h.Address(), h.Hostname}
	}
	return rows
}

func formatValueCount(opt protocol.OptionDescriptor) string {
	switch opt.Type {
	case protocol.TypeString:
		return fmt.Sprintf("%d bytes", opt.Size)
	case protocol.TypeButton, protocol.TypeGroup:
		return ""
	default:
		return strconv.Itoa(opt.ValueCount())
	}
}

// FormatConstraint renders an option's constraint for humans, e.g.
// "75..1200 dpi step 25" or "Color | Gray | Lineart"
func FormatConstraint(opt protocol.OptionDescriptor) string {
	c := opt.Constraint
	unit := ""
	if u := opt.Unit.String(); u != "" {
		unit = " " + u
	}

	switch c.Type {
	case protocol.ConstraintNone:
		return ""
	case protocol.ConstraintRange:
		if c.Range == nil {
			return "range (unset)"
		}
		s := formatWord(opt.Type, c.Range.Min) + ".." + formatWord(opt.Type, c.Range.Max) + unit
		if c.Range.Quant != 0 {
			s += " step " + formatWord(opt.Type, c.Range.Quant)
		}
		return s
	case protocol.ConstraintWordList:
		words := make([]string, len(c.WordList))
		for i, w := range c.WordList {
			words[i] = formatWord(opt.Type, w)
		}
		return strings.Join(words, ", ") + unit
	case protocol.ConstraintStringList:
		return strings.Join(c.StringList, " | ")
	default:
		return c.Type.String()
	}
}

func formatWord(t protocol.ValueType, w int32) string {
	if t == protocol.TypeFixed {
		return protocol.Fixed(w).String()
	}
	return strconv.Itoa(int(w))
}

// RenderTable renders rows under headers as a bordered table no wider than
// width. Rows for which muted returns true are dimmed.
func RenderTable(headers []string, rows [][]string, width int, muted func(row int) bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case muted != nil && muted(row):
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}

// OptionMuted dims inactive options, group headings and absent entries
func OptionMuted(options []wire.Optional[protocol.OptionDescriptor]) func(row int) bool {
	return func(row int) bool {
		if row < 0 || row >= len(options) {
			return false
		}
		opt, ok := options[row].Get()
		return !ok || !opt.IsActive() || opt.Type == protocol.TypeGroup
	}
}

// RenderOptionTable renders option descriptors with OptionMuted rows dimmed
func RenderOptionTable(options []wire.Optional[protocol.OptionDescriptor], width int) string {
	return RenderTable(OptionHeaders, OptionRows(options), width, OptionMuted(options))
}
