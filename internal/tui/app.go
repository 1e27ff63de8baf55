package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brizzai/swapi/internal/music"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Searcher starts a track search; the channel delivers one result
type Searcher interface {
	SearchAsync(ctx context.Context, term string, limit int) <-chan requester.Result[music.ResultResponse]
}

// searchResultMsg carries a finished search back into the update loop
type searchResultMsg struct {
	term   string
	result requester.Result[music.ResultResponse]
}

type keyMap struct {
	search key.Binding
	focus  key.Binding
	quit   key.Binding
}

func newKeyMap() *keyMap {
	return &keyMap{
		search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Search"),
		),
		focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Switch between search bar and results"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c/esc", "Quit"),
		),
	}
}

// Model is the music search screen: a search bar above a table of tracks
type Model struct {
	ctx      context.Context
	searcher Searcher
	limit    int

	keys    *keyMap
	input   textinput.Model
	spinner spinner.Model
	table   table.Model

	loading bool
	term    string
	status  string
	err     *requester.APIError
	tracks  []music.Track
	width   int
}

// NewModel creates the search screen. limit is passed to every search.
func NewModel(ctx context.Context, searcher Searcher, limit int) Model {
	input := textinput.New()
	input.Placeholder = "Search artists, albums or songs"
	input.CharLimit = 100
	input.Width = 50
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return Model{
		ctx:      ctx,
		searcher: searcher,
		limit:    limit,
		keys:     newKeyMap(),
		input:    input,
		spinner:  sp,
		table:    t,
		status:   "Type a search term and press enter",
	}
}

// columns spreads width over the track columns
func columns(width int) []table.Column {
	rest := width - 6
	if rest < 30 {
		rest = 30
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Track", Width: rest * 2 / 5},
		{Title: "Artist", Width: rest / 4},
		{Title: "Collection", Width: rest - rest*2/5 - rest/4},
	}
}

// Init starts the cursor blinking
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the search screen
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.focus):
			if m.input.Focused() {
				m.input.Blur()
				m.table.Focus()
				return m, nil
			}
			m.table.Blur()
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.search) && m.input.Focused():
			return m.startSearch()
		}

	case searchResultMsg:
		if msg.term != m.term {
			// a newer search is in flight
			return m, nil
		}
		m.loading = false
		m.applyResult(msg.result)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetColumns(columns(msg.Width - 8))
		if h := msg.Height - 12; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) startSearch() (tea.Model, tea.Cmd) {
	term := strings.TrimSpace(m.input.Value())
	if term == "" {
		m.status = "Enter a search term first"
		return m, nil
	}

	m.term = term
	m.loading = true
	m.err = nil
	m.status = fmt.Sprintf("Searching for %q", term)

	ch := m.searcher.SearchAsync(m.ctx, term, m.limit)
	wait := func() tea.Msg {
		return searchResultMsg{term: term, result: <-ch}
	}
	return m, tea.Batch(m.spinner.Tick, wait)
}

func (m *Model) applyResult(res requester.Result[music.ResultResponse]) {
	if res.Err != nil {
		m.err = res.Err
		m.status = errorMessage(res.Err)
		return
	}

	m.tracks = nil
	if res.Value != nil {
		m.tracks = res.Value.Results
	}

	rows := make([]table.Row, 0, len(m.tracks))
	for i, track := range m.tracks {
		rows = append(rows, table.Row{strconv.Itoa(i + 1), track.TrackName, track.Artist, track.Collection})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
	m.status = fmt.Sprintf("%d results for %q", len(m.tracks), m.term)
}

// errorMessage is the status line shown for a failed search
func errorMessage(err *requester.APIError) string {
	switch err.Kind {
	case requester.NoInternetConnection, requester.ConnectionError:
		return "Please check your internet connection"
	case requester.NotFound:
		return "The search service could not be found"
	case requester.BadRequest, requester.UnprocessableEntity, requester.InvalidEndpointAPIDefinition:
		return "The search was rejected: " + err.Error()
	case requester.JSONDecodingError:
		return "Unexpected response from the search service"
	default:
		return "API Error: " + err.Error()
	}
}

// Tracks returns the tracks of the last successful search
func (m Model) Tracks() []music.Track {
	return m.tracks
}

// View renders the search screen
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Music Search"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + statusMessageStyle(m.status))
	case m.err != nil:
		b.WriteString(errorMessageStyle(m.status))
	case len(m.tracks) > 0:
		b.WriteString(completeMessageStyle(m.status))
	default:
		b.WriteString(statusMessageStyle(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(tableBorderStyle.Render(m.table.View()))
	b.WriteString("\n")

	if row := m.table.SelectedRow(); !m.input.Focused() && row != nil {
		b.WriteString(statusMessageStyle(fmt.Sprintf("%s by %s", row[1], row[2])))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf("%s • %s • %s",
		helpText(m.keys.search), helpText(m.keys.focus), helpText(m.keys.quit))))
	return docStyle.Render(b.String())
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + ": " + h.Desc
}
