package show

import "github.com/charmbracelet/bubbles/v2/key"

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Toggle key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("space", " "),
			key.WithHelp("space", "play/stop"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Toggle, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
