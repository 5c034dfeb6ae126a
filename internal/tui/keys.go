package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Learned  key.Binding
	Unuseful key.Binding
	Review   key.Binding
	Favorite key.Binding
	Undo     key.Binding
	Mode     key.Binding
	Daily    key.Binding
	Lang     key.Binding
	Refresh  key.Binding
	Feedback key.Binding
	Support  key.Binding
	Settings key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Learned, k.Review, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Support},
		{k.Learned, k.Unuseful, k.Review, k.Favorite, k.Undo},
		{k.Mode, k.Daily, k.Lang, k.Refresh},
		{k.Feedback, k.Settings, k.Help, k.Quit},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("down", "j", "right", " "),
			key.WithHelp("↓/j", "next card"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "k", "left"),
			key.WithHelp("↑/k", "previous card"),
		),
		Learned: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "learned"),
		),
		Unuseful: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "not useful"),
		),
		Review: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "review later"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "favorite"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Mode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next list"),
		),
		Daily: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "daily ritual"),
		),
		Lang: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "language"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "refresh"),
		),
		Feedback: key.NewBinding(
			key.WithKeys("!"),
			key.WithHelp("!", "report card"),
		),
		Support: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "support"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
