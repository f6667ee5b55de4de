package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#01B4E4", "#04B575", "#FF5F5F", "#F5C518", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	notice    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:     NewBold(t).MarginBottom(1),
		ok:        NewBold(s),
		err:       NewBold(e),
		warn:      NewStyle(w),
		help:      NewEm(h),
		tab:       NewStyle(h).Padding(0, 1),
		activeTab: NewBold(t).Padding(0, 1).Underline(true),
		notice:    lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()),
	}
}

// Severity picks the notice color for a notification kind.
func (p *Palette) Severity(success bool) lipgloss.Style {
	if success {
		return p.notice.BorderForeground(p.ok.GetForeground())
	}
	return p.notice.BorderForeground(p.warn.GetForeground())
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
