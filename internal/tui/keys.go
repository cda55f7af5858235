package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up      key.Binding
	down    key.Binding
	search  key.Binding
	create  key.Binding
	upload  key.Binding
	preview key.Binding
	embed   key.Binding
	copy    key.Binding
	files   key.Binding
	delete  key.Binding
	reload  key.Binding
	close   key.Binding
	help    key.Binding
	quit    key.Binding

	confirm key.Binding
	decline key.Binding
	submit  key.Binding
	next    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		create: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new project"),
		),
		upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		embed: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "embed"),
		),
		copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy embed"),
		),
		files: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "files"),
		),
		delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "delete"),
		),
		decline: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "keep"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		next: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.create, k.upload, k.preview, k.embed, k.delete, k.help, k.quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.search, k.reload},
		{k.create, k.upload, k.delete},
		{k.preview, k.embed, k.copy, k.files},
		{k.close, k.help, k.quit},
	}
}
