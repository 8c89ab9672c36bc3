package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/sanenet/internal/discovery"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/session"
	"github.com/muurk/sanenet/internal/ui"
	"github.com/muurk/sanenet/internal/wire"
)

// screen is the browser's current view
type screen int

const (
	screenHosts screen = iota
	screenAddress
	screenDevices
	screenOptions
)

// SavedHost is a host from the config registry
type SavedHost struct {
	Nickname string
	Address  string
}

// Config configures the browser
type Config struct {
	Backend Backend

	// Saved hosts are listed before discovered ones
	Saved []SavedHost

	// StartAddress skips host selection and lists its devices straight away
	StartAddress string

	// ScanTimeout sizes the scan progress bar; it should match the backend's
	ScanTimeout time.Duration

	// RequestTimeout bounds each device or option request (0 = none)
	RequestTimeout time.Duration
}

type scanDoneMsg struct {
	hosts []*discovery.Host
	err   error
}

type devicesMsg struct {
	id   int
	addr string
	list *session.DeviceList
	err  error
}

type optionsMsg struct {
	id      int
	device  protocol.Device
	options []wire.Optional[protocol.OptionDescriptor]
	err     error
}

// hostItem is one row of the host list
type hostItem struct {
	name    string
	address string
	source  string
}

func (h hostItem) Title() string       { return h.name }
func (h hostItem) Description() string { return h.address + " • " + h.source }
func (h hostItem) FilterValue() string { return h.name + " " + h.address }

// Model is the Bubble Tea model for the browser
type Model struct {
	backend        Backend
	saved          []SavedHost
	scanTimeout    time.Duration
	requestTimeout time.Duration
	initCmd        tea.Cmd

	screen screen
	width  int
	height int

	hosts     list.Model
	scanning  bool
	scanStart time.Time
	scanErr   error

	input textinput.Model

	busy      bool
	busyLabel string
	requestID int
	err       error

	addr          string
	serverVersion uint32
	devices       []protocol.Device
	deviceTable   table.Model

	device      protocol.Device
	options     []wire.Optional[protocol.OptionDescriptor]
	optionTable table.Model

	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     keyMap
}

// New creates the browser model. The first scan or device request starts
// when the program calls Init.
func New(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "host or host:port"
	input.CharLimit = 255
	input.Width = 40

	hosts := list.New(nil, list.NewDefaultDelegate(), MinTerminalWidth-6, 12)
	hosts.Title = "saned hosts"
	hosts.Styles.Title = TitleStyle
	hosts.SetShowStatusBar(false)
	hosts.SetShowHelp(false)
	hosts.KeyMap.Quit.SetEnabled(false)

	// Bubble Tea sends the real size once the program starts
	width, height := ui.GetTerminalSize()

	m := Model{
		backend:        cfg.Backend,
		saved:          cfg.Saved,
		scanTimeout:    cfg.ScanTimeout,
		requestTimeout: cfg.RequestTimeout,
		width:          max(width, MinTerminalWidth),
		height:         height,
		hosts:          hosts,
		input:          input,
		deviceTable:    newTable(ui.DeviceHeaders),
		optionTable:    newTable(ui.OptionHeaders),
		spinner:        s,
		progress:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:           help.New(),
		keys:           newKeyMap(),
	}
	m.hosts.SetItems(m.hostItems(nil))
	m.resize()

	if cfg.StartAddress != "" {
		m.initCmd = m.loadDevices(cfg.StartAddress)
	} else {
		m.initCmd = m.startScan()
	}
	return m
}

// Run starts the browser on the alternate screen and blocks until it exits
func Run(cfg Config) error {
	_, err := tea.NewProgram(New(cfg), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy && !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanDoneMsg:
		m.scanning = false
		m.scanErr = msg.err
		return m, m.hosts.SetItems(m.hostItems(msg.hosts))

	case devicesMsg:
		if msg.id != m.requestID {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.addr = msg.list.Addr
		m.serverVersion = msg.list.ServerVersion
		m.devices = msg.list.Devices
		setTableRows(&m.deviceTable, ui.DeviceRows(m.devices), m.contentWidth())
		m.screen = screenDevices
		return m, nil

	case optionsMsg:
		if msg.id != m.requestID {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.device = msg.device
		m.options = msg.options
		setTableRows(&m.optionTable, ui.OptionRows(m.options), m.contentWidth())
		m.screen = screenOptions
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenHosts:
			return m.updateHosts(msg)
		case screenAddress:
			return m.updateAddress(msg)
		case screenDevices:
			return m.updateDevices(msg)
		case screenOptions:
			return m.updateOptions(msg)
		}
	}

	return m, nil
}

func (m Model) updateHosts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.hosts.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.hosts, cmd = m.hosts.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.scanning {
			return m, nil
		}
		return m, m.startScan()
	case key.Matches(msg, m.keys.Manual):
		m.screen = screenAddress
		m.err = nil
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Select):
		if m.busy {
			return m, nil
		}
		if item, ok := m.hosts.SelectedItem().(hostItem); ok {
			return m, m.loadDevices(item.address)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.hosts, cmd = m.hosts.Update(msg)
	return m, cmd
}

func (m Model) updateAddress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.screen = screenHosts
		return m, nil
	case "enter":
		addr := strings.TrimSpace(m.input.Value())
		if addr == "" || m.busy {
			return m, nil
		}
		m.input.Blur()
		return m, m.loadDevices(addr)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateDevices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.cancelRequest()
		m.screen = screenHosts
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.busy {
			return m, nil
		}
		return m, m.loadDevices(m.addr)
	case key.Matches(msg, m.keys.Select):
		row := m.deviceTable.Cursor()
		if m.busy || row < 0 || row >= len(m.devices) {
			return m, nil
		}
		return m, m.loadOptions(m.devices[row])
	}

	var cmd tea.Cmd
	m.deviceTable, cmd = m.deviceTable.Update(msg)
	return m, cmd
}

func (m Model) updateOptions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.cancelRequest()
		m.err = nil
		m.screen = screenDevices
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.busy {
			return m, nil
		}
		return m, m.loadOptions(m.device)
	}

	var cmd tea.Cmd
	m.optionTable, cmd = m.optionTable.Update(msg)
	return m, cmd
}

// startScan begins an mDNS browse
func (m *Model) startScan() tea.Cmd {
	m.scanning = true
	m.scanStart = time.Now()
	m.scanErr = nil

	backend := m.backend
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		hosts, err := backend.Scan(context.Background())
		return scanDoneMsg{hosts: hosts, err: err}
	})
}

// loadDevices requests the device list of addr
func (m *Model) loadDevices(addr string) tea.Cmd {
	m.requestID++
	m.busy = true
	m.busyLabel = "Listing devices on " + addr
	m.err = nil

	id, backend, timeout := m.requestID, m.backend, m.requestTimeout
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		list, err := backend.Devices(ctx, addr)
		return devicesMsg{id: id, addr: addr, list: list, err: err}
	})
}

// loadOptions requests the option descriptors of dev
func (m *Model) loadOptions(dev protocol.Device) tea.Cmd {
	m.requestID++
	m.busy = true
	m.busyLabel = "Reading options of " + dev.Name
	m.err = nil

	id, backend, timeout, addr := m.requestID, m.backend, m.requestTimeout, m.addr
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		options, err := backend.Options(ctx, addr, dev)
		return optionsMsg{id: id, device: dev, options: options, err: err}
	})
}

// cancelRequest makes any in-flight response stale
func (m *Model) cancelRequest() {
	if m.busy {
		m.requestID++
		m.busy = false
	}
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func (m Model) hostItems(discovered []*discovery.Host) []list.Item {
	items := make([]list.Item, 0, len(m.saved)+len(discovered))
	for _, s := range m.saved {
		items = append(items, hostItem{name: s.Nickname, address: s.Address, source: "saved"})
	}
	for _, h := range discovered {
		items = append(items, hostItem{name: h.Instance, address: h.Address(), source: "mDNS " + h.Hostname})
	}
	return items
}

func (m Model) contentWidth() int {
	return max(min(m.width, MaxContentWidth)-6, MinTerminalWidth-6)
}

func (m *Model) resize() {
	width := m.contentWidth()
	tableHeight := max(m.height-16, 3)

	m.hosts.SetSize(width, max(m.height-10, 6))
	m.progress.Width = min(width-10, 50)
	m.help.Width = width

	m.deviceTable.SetHeight(tableHeight)
	setTableRows(&m.deviceTable, ui.DeviceRows(m.devices), width)
	m.optionTable.SetHeight(tableHeight)
	setTableRows(&m.optionTable, ui.OptionRows(m.options), width)
}

// View implements tea.Model
func (m Model) View() string {
	var content, location string
	switch m.screen {
	case screenHosts:
		content = m.viewHosts()
	case screenAddress:
		content = m.viewAddress()
	case screenDevices:
		content = m.viewDevices()
		location = m.addr
	case screenOptions:
		content = m.viewOptions()
		location = m.addr + " › " + m.device.Name
	}

	if m.busy {
		content += "\n\n  " + m.spinner.View() + " " + m.busyLabel + "..."
	}
	if m.err != nil {
		content += "\n\n" + renderError(m.err)
	}

	footer := m.help.View(m.keys.forScreen(m.screen))
	return renderApplicationContainer(content, location, footer, m.width, m.height)
}

func (m Model) viewHosts() string {
	var b strings.Builder

	if m.scanning {
		elapsed := time.Since(m.scanStart)
		fraction := 1.0
		if m.scanTimeout > 0 {
			fraction = min(elapsed.Seconds()/m.scanTimeout.Seconds(), 1)
		}
		b.WriteString(TitleStyle.Render(m.spinner.View() + " Searching for saned hosts"))
		b.WriteString("\n")
		b.WriteString("  " + m.progress.ViewAs(fraction))
		b.WriteString("\n\n")
	}

	if m.scanErr != nil {
		b.WriteString(renderError(fmt.Errorf("scan failed: %w", m.scanErr)))
		b.WriteString("\n\n")
	}

	if len(m.hosts.Items()) == 0 {
		if !m.scanning {
			b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("  ⚠ No saned hosts found"))
			b.WriteString("\n\n")
			b.WriteString(HintStyle.Render("Press 'a' to enter an address, or 'r' to scan again."))
		}
		return b.String()
	}

	b.WriteString(m.hosts.View())
	return b.String()
}

func (m Model) viewAddress() string {
	return TitleStyle.Render("Connect to saned") + "\n" +
		"  Address: " + m.input.View() + "\n\n" +
		HintStyle.Render("The default port 6566 is used when none is given.")
}

func (m Model) viewDevices() string {
	title := fmt.Sprintf("Devices on %s", m.addr)
	if m.serverVersion != 0 {
		title += " (protocol " + protocol.FormatVersion(m.serverVersion) + ")"
	}

	if len(m.devices) == 0 {
		return TitleStyle.Render(title) + "\n" + HintStyle.Render("The daemon exports no devices.")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.deviceTable.View())
	return b.String()
}

func (m Model) viewOptions() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Options of " + m.device.Name))
	b.WriteString("\n")
	b.WriteString(m.optionTable.View())

	row := m.optionTable.Cursor()
	if row >= 0 && row < len(m.options) {
		if opt, ok := m.options[row].Get(); ok {
			b.WriteString("\n\n")
			b.WriteString(DetailStyle.Render(describeOption(opt)))
		}
	}
	return b.String()
}

// describeOption is the detail panel below the option table
func describeOption(opt protocol.OptionDescriptor) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render(opt.Title)}
	if opt.Description != "" {
		lines = append(lines, opt.Description)
	}
	if c := ui.FormatConstraint(opt); c != "" {
		lines = append(lines, "Allowed: "+c)
	}
	if !opt.IsActive() {
		lines = append(lines, SubtitleStyle.Render("inactive"))
	}
	return strings.Join(lines, "\n")
}

func renderError(err error) string {
	out := ErrorStyle.Render("✗ " + session.ShortErrorMessage(err))
	if hint := session.TroubleshootingHint(err); hint != "" {
		out += "\n" + HintStyle.Render(hint)
	}
	return out
}

func newTable(headers []string) table.Model {
	t := table.New(
		table.WithColumns(fitColumns(headers, nil, MinTerminalWidth-6)),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(false)
	t.SetStyles(s)
	return t
}

// setTableRows replaces the rows and refits the columns to width
func setTableRows(t *table.Model, rows [][]string, width int) {
	cols := t.Columns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Title
	}

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row(r)
	}

	t.SetRows(nil)
	t.SetColumns(fitColumns(headers, rows, width))
	t.SetRows(tableRows)
	t.SetWidth(width)
	if t.Cursor() >= len(rows) {
		t.SetCursor(max(len(rows)-1, 0))
	}
}

// maxColumnWidth caps a single column before the table is fitted to width
const maxColumnWidth = 40

// fitColumns sizes each column to its content and shrinks the widest
// columns until the table fits in width
func fitColumns(headers []string, rows [][]string, width int) []table.Column {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			widths[i] = max(widths[i], min(lipgloss.Width(r[i]), maxColumnWidth))
		}
	}

	// each cell carries one column of padding on both sides
	total := 2 * len(widths)
	for _, w := range widths {
		total += w
	}
	for total > width {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			break
		}
		widths[widest]--
		total--
	}

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}
