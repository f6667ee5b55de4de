package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/watchwave/internal/collection"
	"github.com/desertthunder/watchwave/internal/formatter"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/session"
	"github.com/desertthunder/watchwave/internal/shared"
)

const noticeInterval = 250 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	SearchView
	WatchlistView
	LibraryView
	StatsView
	NoteView
)

func (v ViewState) String() string {
	switch v {
	case BrowseView:
		return "Browse"
	case SearchView:
		return "Search"
	case WatchlistView:
		return "Watchlist"
	case LibraryView:
		return "Library"
	case StatsView:
		return "Stats"
	case NoteView:
		return "Note"
	default:
		return ""
	}
}

// views reachable with tab, in order.
var views = []ViewState{BrowseView, SearchView, WatchlistView, LibraryView, StatsView}

// BrowseTab selects the catalog listing shown in [BrowseView].
type BrowseTab int

const (
	TrendingTab BrowseTab = iota
	TopRatedTab
	UpcomingTab
	numTabs
)

func (t BrowseTab) String() string {
	switch t {
	case TrendingTab:
		return "Trending"
	case TopRatedTab:
		return "Top Rated"
	case UpcomingTab:
		return "Upcoming"
	default:
		return ""
	}
}

// Options holds the dependencies of a [Model]. Session and Remote may be nil.
type Options struct {
	Catalog services.Catalog
	Store   *collection.Store
	Session *session.Store
	Remote  services.RemoteWatchlist
	Now     func() time.Time
	OpenURL func(string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	lastView ViewState
	catalog  services.Catalog
	store    *collection.Store
	session  *session.Store
	remote   services.RemoteWatchlist
	now      func() time.Time
	openURL  func(string) error
	width    int
	height   int

	tab        BrowseTab
	pages      [numTabs]*models.Page
	browse     [numTabs]list.Model
	loading    bool
	syncing    bool
	searchBox  textinput.Model
	searchList list.Model
	searchPage *models.Page
	searchSeq  int
	searching  bool
	watchlist  list.Model
	library    list.Model
	note       textarea.Model
	noteID     int

	notice *collection.Notification
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	search := textinput.New()
	search.Placeholder = "Search movies and series"
	search.CharLimit = 120

	note := textarea.New()
	note.Placeholder = "What did you think?"
	note.CharLimit = 2000

	m := &Model{
		ctx:        ctx,
		view:       BrowseView,
		catalog:    opts.Catalog,
		store:      opts.Store,
		session:    opts.Session,
		remote:     opts.Remote,
		now:        opts.Now,
		openURL:    opts.OpenURL,
		searchBox:  search,
		searchList: newList("Results"),
		watchlist:  newList("Watchlist"),
		library:    newList("Library"),
		note:       note,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	for tab := range numTabs {
		m.browse[tab] = newList(tab.String())
	}
	m.refresh()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Init loads the first trending page and starts the notification ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPage(TrendingTab, 1, false), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.view == NoteView:
			return m.handleNoteKeys(msg)
		case m.view == SearchView && m.searchBox.Focused():
			return m.handleSearchInputKeys(msg)
		default:
			return m.handleListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		res := msg.data.(pageResult)
		m.loading = false
		if res.err != nil {
			m.err = res.err
		} else {
			m.err = nil
			if res.append && m.pages[res.tab] != nil {
				merged := *res.page
				merged.Results = slices.Concat(m.pages[res.tab].Results, res.page.Results)
				m.pages[res.tab] = &merged
			} else {
				m.pages[res.tab] = res.page
			}
			m.refresh()
		}
		// the tab may have changed while this page was loading
		if res.tab != m.tab && m.pages[m.tab] == nil {
			return m, m.fetchPage(m.tab, 1, false)
		}
		return m, nil

	case MsgSearchResults:
		res := msg.data.(searchResult)
		if res.seq != m.searchSeq {
			return m, nil
		}
		m.searching = false
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.searchPage = res.page
		m.refresh()
		return m, nil

	case MsgRemoteAdded:
		res := msg.data.(remoteResult)
		m.syncing = false
		m.store.ApplyRemote(res.title, res.err)
		m.refresh()
		m.syncNotice()
		return m, nil

	case MsgNoticeTick:
		m.syncNotice()
		return m, m.tick()

	case MsgBrowserOpened:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.nextView):
		return m, m.switchView(1)
	case key.Matches(msg, m.keys.prevView):
		return m, m.switchView(-1)
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		return m, m.searchBox.Focus()
	case key.Matches(msg, m.keys.stats):
		m.view = StatsView
		return m, nil
	case key.Matches(msg, m.keys.back) && m.view == SearchView:
		return m, m.searchBox.Focus()
	case key.Matches(msg, m.keys.back):
		m.dismissNotice()
		return m, nil
	}

	if m.view == BrowseView {
		switch {
		case key.Matches(msg, m.keys.nextTab):
			m.tab = (m.tab + 1) % numTabs
			if m.pages[m.tab] == nil {
				return m, m.fetchPage(m.tab, 1, false)
			}
			return m, nil
		case key.Matches(msg, m.keys.more):
			if p := m.pages[m.tab]; p != nil && p.HasMore() {
				return m, m.fetchPage(m.tab, p.Page+1, true)
			}
			return m, nil
		}
	}

	if t, ok := m.selected(); ok {
		switch {
		case key.Matches(msg, m.keys.watchlist):
			m.store.ToggleWatchlist(t)
			m.afterMutation()
			return m, nil
		case key.Matches(msg, m.keys.watched):
			m.store.ToggleWatched(t)
			m.afterMutation()
			return m, nil
		case key.Matches(msg, m.keys.remote):
			return m, m.addRemote(t)
		case key.Matches(msg, m.keys.note):
			return m, m.editNote(t)
		case key.Matches(msg, m.keys.open):
			return m, m.openTitle(t)
		}
	}

	return m.updateActive(msg)
}

func (m *Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchBox.Blur()
		return m, nil
	case "enter":
		m.searchBox.Blur()
		m.searchSeq++
		return m, m.search(m.searchSeq)
	case "tab", "shift+tab":
		m.searchBox.Blur()
		return m.handleListKeys(msg)
	}

	before := m.searchBox.Value()
	var cmd tea.Cmd
	m.searchBox, cmd = m.searchBox.Update(msg)
	if m.searchBox.Value() == before {
		return m, cmd
	}

	m.searchSeq++
	return m, tea.Batch(cmd, m.search(m.searchSeq))
}

func (m *Model) handleNoteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.save):
		if err := m.store.UpdateNote(m.noteID, strings.TrimSpace(m.note.Value())); err != nil {
			m.err = err
		}
		m.closeNote()
		m.afterMutation()
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.closeNote()
		return m, nil
	}

	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m *Model) switchView(step int) tea.Cmd {
	i := 0
	for j, v := range views {
		if v == m.view {
			i = j
		}
	}
	m.view = views[(i+step+len(views))%len(views)]
	if m.view == SearchView {
		return m.searchBox.Focus()
	}
	return nil
}

func (m *Model) editNote(t models.Title) tea.Cmd {
	if !m.store.IsWatched(t.ID) {
		return nil
	}
	stored, _ := m.store.Get(t.ID)
	m.noteID = t.ID
	m.note.SetValue(stored.PersonalNote)
	m.lastView = m.view
	m.view = NoteView
	return m.note.Focus()
}

func (m *Model) closeNote() {
	m.note.Blur()
	m.note.Reset()
	m.noteID = 0
	m.view = m.lastView
}

func (m *Model) afterMutation() {
	m.refresh()
	m.syncNotice()
}

// selected returns the title under the cursor of the active list.
func (m *Model) selected() (models.Title, bool) {
	l := m.activeList()
	if l == nil {
		return models.Title{}, false
	}
	item, ok := l.SelectedItem().(titleItem)
	if !ok {
		return models.Title{}, false
	}
	return item.title, true
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case BrowseView:
		return &m.browse[m.tab]
	case SearchView:
		return &m.searchList
	case WatchlistView:
		return &m.watchlist
	case LibraryView:
		return &m.library
	default:
		return nil
	}
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := m.activeList()
	if l == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

// refresh rebuilds every list from the cached pages and the store.
func (m *Model) refresh() {
	for tab := range numTabs {
		if p := m.pages[tab]; p != nil {
			m.browse[tab].SetItems(m.items(p.Results))
		}
	}
	if m.searchPage != nil {
		m.searchList.SetItems(m.items(m.searchPage.Results))
	}
	m.watchlist.SetItems(m.items(m.store.Watchlist()))
	m.library.SetItems(m.items(m.store.Watched()))
}

func (m *Model) items(titles []models.Title) []list.Item {
	items := make([]list.Item, len(titles))
	for i, t := range titles {
		items[i] = titleItem{
			title:       t,
			inWatchlist: m.store.IsInWatchlist(t.ID),
			watched:     m.store.IsWatched(t.ID),
		}
	}
	return items
}

func (m *Model) resize() {
	w, h := m.width-4, m.height-8
	for tab := range numTabs {
		m.browse[tab].SetSize(w, h)
	}
	m.searchList.SetSize(w, h-2)
	m.watchlist.SetSize(w, h)
	m.library.SetSize(w, h)
	m.note.SetWidth(w)
	m.note.SetHeight(max(h-4, 3))
}

// syncNotice shows the pending notification while it is current.
func (m *Model) syncNotice() {
	n, ok := m.store.Notification()
	if ok && n.Current(m.now()) {
		m.notice = &n
		return
	}
	m.notice = nil
}

// dismissNotice clears the displayed notification unless a newer one replaced it.
func (m *Model) dismissNotice() {
	if m.notice == nil {
		return
	}
	m.store.Dismiss(m.notice.ID)
	m.notice = nil
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(noticeInterval, func(time.Time) tea.Msg { return noticeTickMsg() })
}

// fetchPage loads a browse page. It returns nil while another page is loading.
func (m *Model) fetchPage(tab BrowseTab, page int, appendPage bool) tea.Cmd {
	if m.loading || m.catalog == nil {
		return nil
	}
	m.loading = true

	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		var (
			p   *models.Page
			err error
		)
		switch tab {
		case TopRatedTab:
			p, err = catalog.TopRated(ctx, models.KindMovie, page)
		case UpcomingTab:
			p, err = catalog.Upcoming(ctx, page)
		default:
			p, err = catalog.Trending(ctx, "", page)
		}
		return pageFetchedMsg(tab, p, appendPage, err)
	}
}

func (m *Model) search(seq int) tea.Cmd {
	query := strings.TrimSpace(m.searchBox.Value())
	if query == "" {
		m.searching = false
		m.searchPage = &models.Page{Page: 1, Results: []models.Title{}}
		m.refresh()
		return nil
	}
	if m.catalog == nil {
		return nil
	}
	m.searching = true

	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		page, err := catalog.Search(ctx, query, 1)
		return searchResultsMsg(seq, page, err)
	}
}

// addRemote sends t to the remote watchlist. It returns nil while another add is outstanding.
func (m *Model) addRemote(t models.Title) tea.Cmd {
	if m.syncing || m.remote == nil {
		return nil
	}
	m.syncing = true

	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		return remoteAddedMsg(t, remote.Create(ctx, t))
	}
}

func (m *Model) openTitle(t models.Title) tea.Cmd {
	url := shared.TitlePageURL(t.Kind.CatalogPath(), t.ID)
	open := m.openURL
	return func() tea.Msg {
		return browserOpenedMsg(open(url))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case BrowseView:
		body = m.renderBrowse()
	case SearchView:
		body = m.renderSearch()
	case WatchlistView:
		body = m.renderCollection(&m.watchlist, "Your watchlist is empty. Press w on any title to add it.")
	case LibraryView:
		body = m.renderCollection(&m.library, "Nothing watched yet. Press m on any title to mark it.")
	case StatsView:
		body = m.renderStats()
	case NoteView:
		body = m.renderNote()
	}

	sections := []string{m.renderHeader(), body}
	if m.notice != nil {
		sections = append(sections, styles.Severity(m.notice.Kind == collection.Success).Render(m.notice.Message))
	}
	if m.err != nil {
		sections = append(sections, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	sections = append(sections, m.renderHelp())
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(views))
	for i, v := range views {
		if v == m.view || (m.view == NoteView && v == m.lastView) {
			tabs[i] = styles.activeTab.Render(v.String())
		} else {
			tabs[i] = styles.tab.Render(v.String())
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if m.session != nil {
		if u := m.session.User(); u != nil {
			header += "  " + styles.help.Render("signed in as "+u.Email)
		}
	}
	if m.store.Degraded() {
		header += "  " + styles.warn.Render("changes are not being saved")
	}
	return header
}

func (m *Model) renderBrowse() string {
	tabs := make([]string, numTabs)
	for tab := range numTabs {
		if tab == m.tab {
			tabs[tab] = styles.activeTab.Render(tab.String())
		} else {
			tabs[tab] = styles.tab.Render(tab.String())
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if m.pages[m.tab] == nil {
		if m.loading {
			return row + "\n\nLoading..."
		}
		return row + "\n\nNothing loaded yet."
	}

	body := m.browse[m.tab].View()
	if m.loading {
		body += "\n" + styles.help.Render("Loading more...")
	} else if m.pages[m.tab].FromCache {
		body += "\n" + styles.warn.Render("Offline: showing cached results")
	}
	return row + "\n\n" + body
}

func (m *Model) renderSearch() string {
	box := m.searchBox.View()
	switch {
	case m.searching:
		return box + "\n\nSearching..."
	case m.searchPage == nil:
		return box
	case len(m.searchPage.Results) == 0:
		return box + "\n\nNo results."
	default:
		return box + "\n\n" + m.searchList.View()
	}
}

func (m *Model) renderCollection(l *list.Model, empty string) string {
	if len(l.Items()) == 0 {
		return styles.help.Render(empty)
	}
	return l.View()
}

func (m *Model) renderStats() string {
	s := m.store.Stats()
	title := styles.title.Render("Your Stats")
	return fmt.Sprintf(
		"%s\nWatched: %d (%d movies, %d series)\nOn watchlist: %d\nAverage rating: %s\nEstimated hours: %d\nWith notes: %d",
		title,
		s.Watched, s.WatchedMovies, s.WatchedSeries,
		s.Watchlist,
		formatter.FormatRating(s.AverageRating),
		s.EstimatedHours,
		s.Annotated,
	)
}

func (m *Model) renderNote() string {
	t, _ := m.store.Get(m.noteID)
	title := styles.title.Render(fmt.Sprintf("Note for %s", t.DisplayName))
	return fmt.Sprintf("%s\n%s", title, m.note.View())
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case NoteView:
		keys = []key.Binding{m.keys.save, m.keys.back}
	case BrowseView:
		keys = []key.Binding{m.keys.nextTab, m.keys.more, m.keys.watchlist, m.keys.watched, m.keys.remote, m.keys.open, m.keys.nextView, m.keys.quit}
	case SearchView:
		if m.searchBox.Focused() {
			keys = []key.Binding{m.keys.back, m.keys.nextView}
		} else {
			keys = []key.Binding{m.keys.search, m.keys.watchlist, m.keys.watched, m.keys.open, m.keys.nextView, m.keys.quit}
		}
	case LibraryView:
		keys = []key.Binding{m.keys.watched, m.keys.note, m.keys.open, m.keys.stats, m.keys.nextView, m.keys.quit}
	case WatchlistView:
		keys = []key.Binding{m.keys.watchlist, m.keys.watched, m.keys.open, m.keys.nextView, m.keys.quit}
	default:
		keys = m.keys.ShortHelp()
	}
	return m.help.ShortHelpView(keys)
}
