package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add      key.Binding
	Delete   key.Binding
	Check    key.Binding
	Icon     key.Binding
	Refresh  key.Binding
	Metric   key.Binding
	EditMode key.Binding
	Export   key.Binding
	Load     key.Binding
	Unload   key.Binding
	Start    key.Binding
	Stop     key.Binding
	Home     key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab4     key.Binding
	Tab      key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add tool"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete tool"),
	),
	Check: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "check"),
	),
	Icon: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "icon"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload table"),
	),
	Metric: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "metric/inch"),
	),
	EditMode: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "edit mode"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Load: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "load tool"),
	),
	Unload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unload tool"),
	),
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "cycle start"),
	),
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "cycle stop"),
	),
	Home: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "home/unhome"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "offsets"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "tools"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "usage"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "machine"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "edit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Check, k.Add, k.Delete, k.EditMode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Check, k.Icon, k.Add, k.Delete},
		{k.Refresh, k.Metric, k.EditMode, k.Export},
		{k.Load, k.Unload, k.Start, k.Stop, k.Home},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab},
		{k.Up, k.Down, k.Left, k.Right, k.Back, k.Quit},
	}
}
