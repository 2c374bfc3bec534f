package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Actions
	Search   key.Binding
	Filter   key.Binding
	Play     key.Binding
	Settings key.Binding
	Reload   key.Binding
	Logout   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "half page up"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "half page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Search: key.NewBinding(
			key.WithKeys("s", "ctrl+f"),
			key.WithHelp("s", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter results"),
		),
		Play: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("enter", "play"),
		),
		Settings: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "settings"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Play, k.Filter, k.Settings, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.HalfUp, k.HalfDown, k.Home, k.End},
		{k.Search, k.Filter, k.Play, k.Reload},
		{k.Settings, k.Logout, k.Help, k.Quit},
	}
}
