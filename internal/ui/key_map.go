package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	nextView  key.Binding
	prevView  key.Binding
	nextTab   key.Binding
	search    key.Binding
	watchlist key.Binding
	watched   key.Binding
	remote    key.Binding
	note      key.Binding
	more      key.Binding
	open      key.Binding
	stats     key.Binding
	save      key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		nextView:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		prevView:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
		nextTab:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trending/top/upcoming")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		watchlist: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watchlist")),
		watched:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "watched")),
		remote:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sync add")),
		note:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit note")),
		more:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		stats:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextView, k.watchlist, k.watched, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.nextView, k.prevView},
		{k.nextTab, k.search, k.more, k.open},
		{k.watchlist, k.watched, k.remote, k.note},
		{k.stats, k.back, k.quit},
	}
}
