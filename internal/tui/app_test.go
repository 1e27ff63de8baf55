package tui

import (
	"context"
	"testing"

	"github.com/brizzai/swapi/internal/music"
	"github.com/brizzai/swapi/internal/requester"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	terms  []string
	limits []int
	result requester.Result[music.ResultResponse]
}

func (f *fakeSearcher) SearchAsync(_ context.Context, term string, limit int) <-chan requester.Result[music.ResultResponse] {
	f.terms = append(f.terms, term)
	f.limits = append(f.limits, limit)
	ch := make(chan requester.Result[music.ResultResponse], 1)
	ch <- f.result
	close(ch)
	return ch
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestModel_SearchFlow(t *testing.T) {
	searcher := &fakeSearcher{result: requester.Result[music.ResultResponse]{
		Value: &music.ResultResponse{Count: 2, Results: []music.Track{
			{TrackID: 1, TrackName: "Banana Pancakes", Artist: "Jack Johnson", Collection: "In Between Dreams"},
			{TrackID: 2, TrackName: "Upside Down", Artist: "Jack Johnson", Collection: "Curious George"},
		}},
	}}

	m := NewModel(context.Background(), searcher, 10)
	m = typeText(t, m, "jack johnson")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, []string{"jack johnson"}, searcher.terms)
	assert.Equal(t, []int{10}, searcher.limits)
	assert.Contains(t, m.View(), `Searching for "jack johnson"`)

	next, _ = m.Update(searchResultMsg{term: "jack johnson", result: searcher.result})
	m = next.(Model)
	assert.False(t, m.loading)
	assert.Len(t, m.Tracks(), 2)
	assert.Equal(t, `2 results for "jack johnson"`, m.status)
	assert.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "Banana Pancakes", m.table.Rows()[0][1])
}

func TestModel_EmptyTermDoesNotSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	m := NewModel(context.Background(), searcher, 10)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.Empty(t, searcher.terms)
	assert.Equal(t, "Enter a search term first", m.status)
}

func TestModel_StaleResultIgnored(t *testing.T) {
	m := NewModel(context.Background(), &fakeSearcher{}, 10)
	m = typeText(t, m, "new")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, _ = m.Update(searchResultMsg{term: "old", result: requester.Result[music.ResultResponse]{
		Value: &music.ResultResponse{Results: []music.Track{{TrackName: "stale"}}},
	}})
	m = next.(Model)
	assert.True(t, m.loading)
	assert.Empty(t, m.Tracks())
}

func TestModel_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *requester.APIError
		want string
	}{
		{"no internet", &requester.APIError{Kind: requester.NoInternetConnection}, "Please check your internet connection"},
		{"not found", &requester.APIError{Kind: requester.NotFound}, "The search service could not be found"},
		{"decoding", &requester.APIError{Kind: requester.JSONDecodingError}, "Unexpected response from the search service"},
		{"server error", &requester.APIError{Kind: requester.ResponseUnsuccessful}, "API Error: Response Unsuccessful"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{result: requester.Result[music.ResultResponse]{Err: tt.err}}
			m := NewModel(context.Background(), searcher, 10)
			m = typeText(t, m, "anything")
			next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			m = next.(Model)

			next, _ = m.Update(searchResultMsg{term: "anything", result: searcher.result})
			m = next.(Model)
			assert.Equal(t, tt.want, m.status)
			assert.Same(t, tt.err, m.err)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestModel_FocusAndQuit(t *testing.T) {
	m := NewModel(context.Background(), &fakeSearcher{}, 10)
	require.True(t, m.input.Focused())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.False(t, m.input.Focused())
	assert.True(t, m.table.Focused())

	// enter in the table does not start a search
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.loading)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.True(t, m.input.Focused())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
