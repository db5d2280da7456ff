package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/paging"
)

// feedArticles is the current feed page in the selected sort order. It is
// empty when the page is out of range.
func (a *App) feedArticles(st app.State) ([]news.Article, int) {
	sorted := news.Sort(a.deps.Store.Snapshot().Articles, st.Query.SortBy)
	cursor := st.FeedCursor()
	return paging.Slice(cursor, sorted), cursor.TotalPages(len(sorted))
}

func (a *App) modalArticles(st app.State) ([]news.Article, int) {
	if st.Modal == nil {
		return nil, 0
	}
	cursor := st.Modal.Cursor()
	return paging.Slice(cursor, st.Modal.Articles), cursor.TotalPages(len(st.Modal.Articles))
}

func querySummary(q news.Query) string {
	country := q.Country
	if country == "" {
		country = "all countries"
	}
	return fmt.Sprintf("%q • %s • %s • sort: %s", q.Keyword, q.Timespan, country, q.SortBy)
}

func (a *App) renderMap(th Theme, st app.State, width, height int, focused bool) string {
	snap := a.deps.Store.Snapshot()
	title := fmt.Sprintf("◉ map • %s", st.Mode)
	subtitle := MsgSummary(len(snap.Articles), snap.Groups.Len(), st.LastUpdated, a.now())
	if !st.Fetched {
		subtitle = " "
	}

	selected := a.marked
	if st.Modal != nil {
		selected = st.Modal.Country
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		th.renderHeader(title, subtitle, width-2),
		a.deps.Canvas.Render(th.Palette(), selected),
	)

	style := th.Panel
	if focused {
		style = th.Focused
	}
	return style.Width(width - 2).Height(height - 2).MaxHeight(height).Render(body)
}

func (a *App) renderFeed(th Theme, st app.State, width, height int, focused bool) string {
	inner := width - 4
	header := th.renderHeader("› news", querySummary(st.Query), inner)

	var body string
	switch {
	case st.Loading && !st.Fetched:
		body = th.MutedText.Render(a.spinner.View() + " " + MsgLoading)
	case st.FeedError != "":
		body = lipgloss.JoinVertical(lipgloss.Left,
			th.StatusStyle(StatusError).Width(inner).Render("Failed to load news: "+st.FeedError),
			"",
			th.Help.Render(MsgRetryHint),
		)
	case st.EmptyMessage != "":
		body = th.MutedText.Width(inner).Render(st.EmptyMessage)
	default:
		articles, total := a.feedArticles(st)
		if len(articles) == 0 {
			body = th.MutedText.Render(MsgNoResults)
			break
		}
		body = a.renderArticleList(th, articles, a.feedIndex, focused, inner, height-6)
		if pager := th.renderPager(st.FeedPage, total); pager != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, body, "", pager)
		}
	}

	style := th.Panel
	if focused {
		style = th.Focused
	}
	return style.Padding(0, 1).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
}

// renderModal draws the open country's frozen article list.
func (a *App) renderModal(th Theme, st app.State, width, height int) string {
	inner := width - 4
	m := st.Modal
	title := fmt.Sprintf("◉ %s", m.Country)
	subtitle := MsgArticleCount(len(m.Articles))

	articles, total := a.modalArticles(st)
	var body string
	if len(articles) == 0 {
		body = th.MutedText.Render(MsgNoResults)
	} else {
		body = a.renderArticleList(th, articles, a.modalIndex, true, inner, height-8)
	}
	if pager := th.renderPager(m.Page, total); pager != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", pager)
	}

	return th.Focused.Padding(0, 1).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			th.renderHeader(title, subtitle, inner),
			"",
			body,
			"",
			th.Help.Render("enter: open • space: read • y: share • e: export • esc: close"),
		))
}

// renderArticleList renders two lines per article and clips to height,
// keeping the selected article visible.
func (a *App) renderArticleList(th Theme, articles []news.Article, selected int, focused bool, width, height int) string {
	now := a.now()
	var lines []string
	selectedLine := 0
	for i, art := range articles {
		title := art.Title
		if title == "" {
			title = art.URL
		}
		tag := ""
		if art.SourceCountry != "" {
			tag = "[" + art.SourceCountry + "] "
		}
		titleLine := truncateEnd(tag+title, width)
		seen, ok := art.Seen()
		meta := age(seen, ok, now)
		if art.Domain != "" {
			meta += " • " + art.Domain
		}
		meta = "  " + truncateEnd(meta, width-2)

		if i == selected && focused {
			selectedLine = len(lines)
			titleLine = th.Selected.Render(titleLine)
		} else {
			titleLine = th.Tag.Render(truncateEnd(tag, width)) + truncateEnd(title, width-len([]rune(tag)))
		}
		lines = append(lines, titleLine, th.MutedText.Render(meta))
	}
	return strings.Join(clip(lines, selectedLine, height), "\n")
}
