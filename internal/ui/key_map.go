package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next      key.Binding
	prev      key.Binding
	enter     key.Binding
	back      key.Binding
	search    key.Binding
	favorite  key.Binding
	theme     key.Binding
	themeAny  key.Binding
	logout    key.Binding
	register  key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		favorite:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		themeAny:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		register:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "register")),
		quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}
