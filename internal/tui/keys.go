package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding; each screen shows the ones that apply
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Back    key.Binding
	Refresh key.Binding
	Manual  key.Binding
	Help    key.Binding
	Quit    key.Binding

	// screen selects which bindings ShortHelp reports
	screen screen
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Manual: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "enter address"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) forScreen(s screen) keyMap {
	k.screen = s
	return k
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	switch k.screen {
	case screenHosts:
		return []key.Binding{k.Select, k.Refresh, k.Manual, k.Quit}
	case screenAddress:
		return []key.Binding{k.Select, k.Back}
	case screenDevices:
		return []key.Binding{k.Select, k.Refresh, k.Back, k.Quit}
	default:
		return []key.Binding{k.Refresh, k.Back, k.Quit}
	}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Refresh, k.Manual, k.Back},
		{k.Help, k.Quit},
	}
}
