package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open   key.Binding
	Close  key.Binding
	Mute   key.Binding
	Listen key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open"),
		),
		Close: key.NewBinding(
			key.WithKeys("c", "esc"),
			key.WithHelp("c", "close"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Listen: key.NewBinding(
			key.WithKeys("l", " "),
			key.WithHelp("l", "listen"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Close, k.Mute, k.Listen, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
