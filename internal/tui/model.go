// Package tui is the operator console: it shows the queue and histories,
// curates entries and submits links and searches from the host.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jukebox/internal/jukebox"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Identity used for entries added from the console.
const (
	HostUser     = "Host (You)"
	HostIP       = "Localhost"
	HostSearchIP = "Localhost (TUI Search)"
)

const refreshInterval = time.Second

// Player is the subset of the audio player the console drives.
type Player interface {
	Play(url string) error
	ToggleAutoplay() bool
	Autoplay() bool
}

type tab int

const (
	tabQueue tab = iota
	tabPlayed
	tabRejected
	tabSearch
	tabCount
)

var tabNames = [tabCount]string{"Queue", "Played History", "Rejected History", "YouTube Search"}

type focus int

const (
	focusNone focus = iota
	focusURL
	focusSearch
	focusFilter
)

type (
	tickMsg       time.Time
	submitDoneMsg jukebox.SubmitResult
	searchDoneMsg struct {
		query   string
		results []jukebox.SearchResult
	}
)

// Model is the bubbletea model of the operator console.
type Model struct {
	ctx        context.Context
	svc        *jukebox.Service
	player     Player
	exportPath string

	active tab
	tables [tabCount]table.Model
	snap   jukebox.Snapshot
	// entries behind each table row, histories newest first and filtered
	shown   [tabCount][]jukebox.Entry
	results []jukebox.SearchResult

	focus       focus
	urlInput    textinput.Model
	searchInput textinput.Model
	filterInput textinput.Model
	filters     [tabCount]string

	status    string
	statusErr bool

	width  int
	height int
}

// Options configures a Model. Player may be nil when playback is disabled.
type Options struct {
	Player     Player
	ExportPath string
}

// New returns a console model over svc. ctx bounds background lookups.
func New(ctx context.Context, svc *jukebox.Service, opts Options) Model {
	m := Model{
		ctx:        ctx,
		svc:        svc,
		player:     opts.Player,
		exportPath: opts.ExportPath,
	}

	m.tables[tabQueue] = newTable([]table.Column{
		{Title: "Idx", Width: 4},
		{Title: "Title", Width: 36},
		{Title: "User", Width: 14},
		{Title: "IP", Width: 15},
		{Title: "URL", Width: 30},
		{Title: "Est. Wait", Width: 10},
		{Title: "Added At", Width: 9},
	})
	history := []table.Column{
		{Title: "Title", Width: 40},
		{Title: "User", Width: 14},
		{Title: "URL", Width: 30},
		{Title: "At", Width: 9},
	}
	m.tables[tabPlayed] = newTable(history)
	m.tables[tabRejected] = newTable(history)
	m.tables[tabSearch] = newTable([]table.Column{
		{Title: "Title", Width: 50},
		{Title: "Channel", Width: 20},
		{Title: "URL", Width: 44},
	})
	m.tables[tabQueue].Focus()

	m.urlInput = newInput("Paste YouTube URL here...")
	m.searchInput = newInput("Search YouTube...")
	m.filterInput = newInput("fuzzy filter...")

	m.refresh()
	return m
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return t
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 512
	ti.Width = 60
	return ti
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 12
		if h < 3 {
			h = 3
		}
		for i := range m.tables {
			m.tables[i].SetHeight(h)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case submitDoneMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Could not add URL: %v", msg.Err))
		} else {
			m.setInfo(fmt.Sprintf("Added '%s'!", msg.Entry.Title))
		}
		m.refresh()
		return m, nil

	case searchDoneMsg:
		m.results = msg.results
		m.refreshSearch()
		if len(msg.results) == 0 {
			m.setInfo("No YouTube results found.")
		} else {
			m.setInfo(fmt.Sprintf("Found %d YouTube results for '%s'.", len(msg.results), msg.query))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus != focusNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.setTab((m.active + 1) % tabCount)
	case "shift+tab":
		m.setTab((m.active + tabCount - 1) % tabCount)
	case "1", "2", "3", "4":
		m.setTab(tab(msg.String()[0] - '1'))
	case "d":
		m.curate(jukebox.ActionReject)
	case " ":
		m.curate(jukebox.ActionPlay)
	case "e":
		m.export()
	case "a":
		return m, m.addSearchResult()
	case "o":
		m.toggleAutoplay()
	case "u":
		return m, m.focusInput(focusURL)
	case "s":
		m.setTab(tabSearch)
		return m, m.focusInput(focusSearch)
	case "/":
		if m.active == tabPlayed || m.active == tabRejected {
			m.filterInput.SetValue(m.filters[m.active])
			return m, m.focusInput(focusFilter)
		}
	default:
		var cmd tea.Cmd
		m.tables[m.active], cmd = m.tables[m.active].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.focus == focusFilter {
			m.filters[m.active] = ""
			m.filterInput.SetValue("")
			m.refresh()
		}
		m.blur()
		return m, nil
	case "enter":
		var cmd tea.Cmd
		switch m.focus {
		case focusURL:
			cmd = m.submitURL()
		case focusSearch:
			cmd = m.startSearch()
		case focusFilter:
			m.blur()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusFilter:
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.filters[m.active] = m.filterInput.Value()
		m.refresh()
	}
	return m, cmd
}

func (m *Model) setTab(t tab) {
	m.tables[m.active].Blur()
	m.active = t
	m.tables[m.active].Focus()
}

func (m *Model) focusInput(f focus) tea.Cmd {
	m.blur()
	m.focus = f
	switch f {
	case focusURL:
		return m.urlInput.Focus()
	case focusSearch:
		return m.searchInput.Focus()
	case focusFilter:
		return m.filterInput.Focus()
	}
	return nil
}

func (m *Model) blur() {
	m.focus = focusNone
	m.urlInput.Blur()
	m.searchInput.Blur()
	m.filterInput.Blur()
}

func (m *Model) curate(action jukebox.Action) {
	if m.active != tabQueue {
		return
	}
	idx := m.tables[tabQueue].Cursor()
	res, err := m.svc.Curate(idx, action)
	switch {
	case errors.Is(err, jukebox.ErrIndexOutOfRange):
		// Row vanished between refreshes.
		m.refresh()
		return
	case err != nil:
		m.setError(err.Error())
		return
	}

	if action == jukebox.ActionReject {
		m.setInfo(fmt.Sprintf("Rejected: %s", res.Entry.Title))
	} else if !res.Playable {
		m.setError(fmt.Sprintf("Could not extract ID for: %s", res.Entry.Title))
	} else {
		m.setInfo(fmt.Sprintf("Now Playing: %s", res.Entry.Title))
		if m.player != nil {
			if err := m.player.Play(jukebox.WatchURL(res.VideoID)); err != nil {
				m.setError(fmt.Sprintf("Playback failed: %v", err))
			}
		}
	}
	m.refresh()
}

func (m *Model) export() {
	n, err := m.svc.ExportPlayed(m.exportPath)
	switch {
	case errors.Is(err, jukebox.ErrNothingToExport):
		m.setError("Played history is empty. Nothing to export.")
	case err != nil:
		m.setError(fmt.Sprintf("Error exporting playlist: %v", err))
	default:
		path := m.exportPath
		if path == "" {
			path = jukebox.DefaultExportPath
		}
		m.setInfo(fmt.Sprintf("Exported %d played entries to %s", n, path))
	}
}

func (m *Model) toggleAutoplay() {
	if m.player == nil {
		m.setError("Playback is disabled.")
		return
	}
	if m.player.ToggleAutoplay() {
		m.setInfo("Autoplay enabled")
	} else {
		m.setInfo("Autoplay disabled")
	}
}

func (m *Model) submitURL() tea.Cmd {
	url := m.urlInput.Value()
	if !jukebox.IsValidVideoURL(url) {
		m.setError("Invalid YouTube URL")
		return nil
	}
	m.urlInput.SetValue("")
	m.setInfo("Fetching title...")
	return m.submit(jukebox.Submission{URL: url, Username: HostUser, IP: HostIP, Source: "tui"})
}

func (m *Model) addSearchResult() tea.Cmd {
	if m.active != tabSearch {
		return nil
	}
	i := m.tables[tabSearch].Cursor()
	if i < 0 || i >= len(m.results) {
		return nil
	}
	r := m.results[i]
	return m.submit(jukebox.Submission{
		URL:      r.URL,
		Title:    r.Title,
		Username: HostUser,
		IP:       HostSearchIP,
		Source:   "tui",
	})
}

func (m *Model) submit(sub jukebox.Submission) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return submitDoneMsg(<-svc.SubmitAsync(ctx, sub))
	}
}

func (m *Model) startSearch() tea.Cmd {
	query := m.searchInput.Value()
	if query == "" {
		m.setError("Please enter a search query.")
		return nil
	}
	m.searchInput.SetValue("")
	m.results = nil
	m.refreshSearch()
	m.setInfo(fmt.Sprintf("Searching YouTube for '%s'...", query))

	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return searchDoneMsg{query: query, results: <-svc.SearchAsync(ctx, query)}
	}
}

// refresh rebuilds the entry tables from a fresh snapshot. Cursors stay on
// the same row number, clamped to the new length.
func (m *Model) refresh() {
	m.snap = m.svc.Repository().Snapshot()

	rows := make([]table.Row, len(m.snap.Pending))
	for i, e := range m.snap.Pending {
		rows[i] = table.Row{
			fmt.Sprint(i + 1),
			e.Title,
			e.Username,
			e.IP,
			e.URL,
			fmt.Sprintf("%d mins", int(m.svc.EstimatedWait(i).Minutes())),
			e.AddedAt,
		}
	}
	m.shown[tabQueue] = m.snap.Pending
	setRows(&m.tables[tabQueue], rows)

	for _, t := range []tab{tabPlayed, tabRejected} {
		list := m.snap.Played
		if t == tabRejected {
			list = m.snap.Rejected
		}
		shown := fuzzyFilter(newestFirst(list), m.filters[t])
		m.shown[t] = shown
		rows := make([]table.Row, len(shown))
		for i, e := range shown {
			at := "N/A"
			if e.ProcessedAt != nil {
				at = *e.ProcessedAt
			}
			rows[i] = table.Row{e.Title, e.Username, e.URL, at}
		}
		setRows(&m.tables[t], rows)
	}
}

func (m *Model) refreshSearch() {
	rows := make([]table.Row, len(m.results))
	for i, r := range m.results {
		rows[i] = table.Row{r.Title, r.Channel, r.URL}
	}
	setRows(&m.tables[tabSearch], rows)
}

func setRows(t *table.Model, rows []table.Row) {
	cursor := t.Cursor()
	t.SetRows(rows)
	switch {
	case len(rows) == 0:
		t.SetCursor(0)
	case cursor >= len(rows):
		t.SetCursor(len(rows) - 1)
	case cursor < 0:
		t.SetCursor(0)
	default:
		t.SetCursor(cursor)
	}
}

func (m *Model) setInfo(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

func newestFirst(entries []jukebox.Entry) []jukebox.Entry {
	out := make([]jukebox.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
