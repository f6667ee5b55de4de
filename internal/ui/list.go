package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/watchwave/internal/formatter"
	"github.com/desertthunder/watchwave/internal/models"
)

var _ list.Item = titleItem{}

// titleItem wraps [models.Title] to implement [list.Item].
//
// Badges are resolved when the list is built so rows reflect collection membership at that moment.
type titleItem struct {
	title       models.Title
	inWatchlist bool
	watched     bool
}

func (i titleItem) FilterValue() string { return i.title.DisplayName }

func (i titleItem) Title() string {
	var badge string
	switch {
	case i.watched:
		badge = "✓ "
	case i.inWatchlist:
		badge = "+ "
	}
	if year := i.title.Year(); year != "" {
		return fmt.Sprintf("%s%s (%s)", badge, i.title.DisplayName, year)
	}
	return badge + i.title.DisplayName
}

func (i titleItem) Description() string {
	desc := fmt.Sprintf("%s • ★ %s", i.title.Kind.Label(), formatter.FormatRating(i.title.VoteAverage))
	if note := firstLine(i.title.PersonalNote); note != "" {
		desc = fmt.Sprintf("%s • %s", desc, note)
	} else if i.title.Overview != "" {
		desc = fmt.Sprintf("%s • %s", desc, firstLine(i.title.Overview))
	}
	return desc
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}
