package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	toggle   key.Binding
	reset    key.Binding
	next     key.Binding
	prev     key.Binding
	jump     key.Binding
	nextHead key.Binding
	prevHead key.Binding
	cellUp   key.Binding
	cellDown key.Binding
	cellLeft key.Binding
	cellRght key.Binding
	hideCell key.Binding
	theme    key.Binding
	help     key.Binding
	quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.reset, k.prev, k.next, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.reset, k.prev, k.next, k.jump},
		{k.nextHead, k.prevHead, k.cellLeft, k.cellDown, k.cellUp, k.cellRght, k.hideCell},
		{k.theme, k.help, k.quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space/p", "play/pause")),
		reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		next:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next step")),
		prev:     key.NewBinding(key.WithKeys("left", "b"), key.WithHelp("←/b", "prev step")),
		jump:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"), key.WithHelp("1-8", "go to step")),
		nextHead: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next head")),
		prevHead: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev head")),
		cellUp:   key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "cell up")),
		cellDown: key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "cell down")),
		cellLeft: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "cell left")),
		cellRght: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "cell right")),
		hideCell: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "hide cell")),
		theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
