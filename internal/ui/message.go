package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/watchwave/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgSearchResults
	MsgRemoteAdded
	MsgNoticeTick
	MsgBrowserOpened
)

type pageResult struct {
	tab    BrowseTab
	page   *models.Page
	append bool
	err    error
}

type remoteResult struct {
	title models.Title
	err   error
}

type searchResult struct {
	seq  int
	page *models.Page
	err  error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(tab BrowseTab, page *models.Page, appendPage bool, err error) Msg {
	return Msg{kind: MsgPageFetched, data: pageResult{tab, page, appendPage, err}}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(seq int, page *models.Page, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResult{seq, page, err}}
}

// remoteAddedMsg is the constructor for [MsgRemoteAdded]
func remoteAddedMsg(t models.Title, err error) Msg {
	return Msg{kind: MsgRemoteAdded, data: remoteResult{t, err}}
}

// noticeTickMsg is the constructor for [MsgNoticeTick]
func noticeTickMsg() Msg {
	return Msg{kind: MsgNoticeTick}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
