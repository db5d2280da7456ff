package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestKeyHandler_ModifierKey(t *testing.T) {
	h := newTestHarness(t, threeArticles)

	assert.NotNil(t, h.app.keyHandler)
	assert.Equal(t, "ctrl+", h.app.keyHandler.modifierKey)
}

func TestKeyHandler_ModifierSearchOpensForm(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, ViewSearch, h.app.view, "ctrl+s should open the search form")
}

func TestKeyHandler_WelcomeSwallowsActionKeys(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.run(h.app.Init())

	h.typeKey("c")
	assert.True(t, h.app.state().WelcomeOpen)
	assert.Equal(t, "markers", h.app.state().Mode.String())
}

func TestKeyHandler_SearchFieldFocusWraps(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)
	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	h.app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, searchCountry, h.app.searchFocus)
	assert.True(t, h.app.searchInputs[searchCountry].Focused())
	assert.False(t, h.app.searchInputs[searchKeyword].Focused())

	h.app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, searchKeyword, h.app.searchFocus)
}

func TestKeyHandler_PanelSwitchIgnoredWhenFeedCollapsed(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("b")
	assert.Equal(t, PanelMap, h.app.focus)
	h.typeKey("p")
	assert.Equal(t, PanelMap, h.app.focus)
}

func TestSanitizeSearchInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"earthquake", "earthquake"},
		{"  flood   warning ", "flood warning"},
		{"a\x00b\tc", "a b c"},
		{"", ""},
		{"северный ветер", "северный ветер"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeSearchInput(tt.in), tt.in)
	}
}

func TestKeyHandler_GetHelpForCurrentView(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	kh := h.app.keyHandler
	h.run(h.app.Init())

	assert.Contains(t, kh.GetHelpForCurrentView(), "x: don't show again")

	h.start(t)
	assert.Contains(t, kh.GetHelpForCurrentView(), "s: search")

	h.app.focus = PanelMap
	assert.Contains(t, kh.GetHelpForCurrentView(), "tab: marker")

	h.app.view = ViewExport
	assert.Equal(t, []string{"c: csv", "j: json", "x: xlsx", "esc: cancel"}, kh.GetHelpForCurrentView())

	h.app.view = ViewReader
	assert.Contains(t, kh.GetHelpForCurrentView(), "i: image")
}
