package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/news"
)

func (a *App) overlayWidth() int {
	w := (a.width * 4) / 5
	if w > 90 {
		w = 90
	}
	if w < 30 {
		w = a.width - 2
	}
	return w
}

func (a *App) renderSearchForm(th Theme, height int) string {
	width := a.overlayWidth()
	rows := []string{th.Title.Render("› search news"), ""}
	for i, in := range a.searchInputs {
		rows = append(rows, th.renderInputFrame(in.View(), i == a.searchFocus, width-8))
	}

	if len(a.recent) > 0 {
		rows = append(rows, "", th.Header.Render("recent"))
		for i, h := range a.recent {
			line := querySummary(news.Query{Keyword: h.Keyword, Timespan: news.Timespan(h.Timespan), Country: h.Country, SortBy: news.SortByTime})
			line = truncateEnd(strings.TrimSuffix(line, " • sort: time"), width-6)
			if i == a.recentIndex {
				rows = append(rows, th.Selected.Render(line))
			} else {
				rows = append(rows, th.MutedText.Render(line))
			}
		}
	}

	rows = append(rows, "", th.Help.Render("tab: next field • ctrl+r: recall recent • enter: search • esc: cancel"))
	return renderCentered(a.width, height, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderFind(th Theme, height int) string {
	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = a.width - 4
	}
	a.findInput.Width = inputWidth

	input := th.renderInputFrame(a.findInput.View(), a.findInput.Focused(), inputWidth)

	var results string
	switch {
	case len([]rune(strings.TrimSpace(a.findInput.Value()))) < 2:
		results = th.Help.Render("Type at least two characters")
	case len(a.findList.Items()) == 0:
		results = th.MutedText.Render(MsgNoResults)
	default:
		results = lipgloss.JoinVertical(lipgloss.Left,
			th.MutedText.Render(MsgResultsCount(len(a.findList.Items()))),
			a.findList.View(),
		)
	}

	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, input, "", results),
	)
}

func (a *App) renderShare(th Theme, st app.State, height int) string {
	width := a.overlayWidth()
	link := st.LastShareURL
	scope := "current search"
	if st.Modal != nil {
		scope = st.Modal.Country
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		th.Header.Render("› share "+scope),
		"",
		lipgloss.NewStyle().Foreground(th.Text).Width(width-6).Render(link),
		"",
		th.Help.Render("enter/esc: close"),
	)
	return renderCentered(a.width, height, th.renderBox(width, content))
}

func (a *App) renderExport(th Theme, st app.State, height int) string {
	width := a.overlayWidth()
	count := len(a.deps.Store.Snapshot().Articles)
	scope := "all results"
	if st.Modal != nil {
		count = len(st.Modal.Articles)
		scope = st.Modal.Country
	}

	rows := []string{
		th.Header.Render(fmt.Sprintf("› export %s", scope)),
		th.MutedText.Render(fmt.Sprintf("%d articles to %s", count, truncateMiddle(a.config.Export.Dir, width-20))),
		"",
	}
	for _, f := range export.Formats {
		rows = append(rows, fmt.Sprintf("%s  %s", th.Tag.Render(string(f[0])), export.Filename(st.Query, f)))
	}
	rows = append(rows, "", th.Help.Render("c/j/x: choose format • esc: cancel"))
	return renderCentered(a.width, height, th.renderBox(width, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (a *App) renderLanguages(th Theme, st app.State, height int) string {
	width := a.overlayWidth()
	var lines []string
	for _, g := range st.Languages {
		lines = append(lines, th.Header.Render(fmt.Sprintf("%s (%s) • %.0f%% • %s", g.Name, g.Code, g.Confidence*100, MsgArticleCount(len(g.Articles)))))
		for _, art := range g.Articles {
			title := art.Title
			if title == "" {
				title = art.URL
			}
			lines = append(lines, "  "+truncateEnd(title, width-8))
		}
		lines = append(lines, "")
	}

	visible := height - 8
	if a.langOffset > len(lines)-1 {
		a.langOffset = max(len(lines)-1, 0)
	}
	lines = lines[a.langOffset:]
	if visible > 0 && len(lines) > visible {
		lines = lines[:visible]
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		th.Title.Render("› foreign language content"),
		"",
		strings.Join(lines, "\n"),
		th.Help.Render("↑/↓: scroll • esc: close"),
	)
	return renderCentered(a.width, height, th.renderBox(width, content))
}

func (a *App) renderHelp(th Theme, height int) string {
	rows := []string{th.Title.Render("› keys"), ""}
	for _, line := range a.keyHandler.fullHelp() {
		rows = append(rows, fmt.Sprintf("%s  %s", th.Tag.Render(fmt.Sprintf("%-10s", line[0])), line[1]))
	}
	rows = append(rows, "", th.Help.Render("esc: close"))
	return renderCentered(a.width, height, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderWelcome(th Theme, height int) string {
	width := a.overlayWidth()
	intro := lipgloss.NewStyle().Width(width - 6).Foreground(th.Text).Render(
		"Recent news from around the world, placed on a map by the country of its source. " +
			"Markers grow with the number of articles and turn red for stories from the last hour.",
	)
	b := a.config.Keys.Bindings
	tips := []string{
		fmt.Sprintf("%s  search by keyword, timespan and country", th.Tag.Render(b.Search)),
		fmt.Sprintf("%s  switch between map and feed", th.Tag.Render("p")),
		fmt.Sprintf("%s  clusters   %s  heatmap", th.Tag.Render(b.Clusters), th.Tag.Render(b.Heatmap)),
		fmt.Sprintf("%s  share the current view", th.Tag.Render(b.Share)),
		fmt.Sprintf("%s  all keys", th.Tag.Render(b.Help)),
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		th.CompactBanner("GDELT news on a map"),
		"",
		intro,
		"",
		lipgloss.JoinVertical(lipgloss.Left, tips...),
		"",
		th.Help.Render("enter: start • x: don't show again"),
	)
	return renderCentered(a.width, height, th.renderBox(width, content))
}
