package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Focus      key.Binding
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	CloseTab   key.Binding
	NextTab    key.Binding
	Filter     key.Binding
	Meta       key.Binding
	AutoFollow key.Binding
	Pause      key.Binding
	Resume     key.Binding
	Cancel     key.Binding
	Rerun      key.Binding
	Help       key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	CloseTab:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close tab")),
	NextTab:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next tab")),
	Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter files")),
	Meta:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "meta files")),
	AutoFollow: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "auto follow")),
	Pause:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Resume:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Cancel:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
	Rerun:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "re-run node")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Enter, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Up, k.Down, k.Enter},
		{k.NextTab, k.CloseTab, k.Filter, k.Meta},
		{k.AutoFollow, k.Pause, k.Resume, k.Cancel, k.Rerun},
		{k.Help, k.Quit},
	}
}
