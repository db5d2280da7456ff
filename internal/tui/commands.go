package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/news"
)

var errNoLauncher = errors.New("no browser configured")

// wrapErr prefixes err with what the UI was doing.
func wrapErr(doing string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", doing, err)
}

// run turns a dispatcher result into the asynchronous work it asks for. The
// ticket's outcome and the scan's groups come back as messages.
func (a *App) run(res app.Result) tea.Cmd {
	var cmds []tea.Cmd
	if res.Ticket != nil {
		ticket := res.Ticket
		ctx := a.ctx
		cmds = append(cmds, func() tea.Msg {
			return fetchSettledMsg{outcome: ticket.Do(ctx)}
		}, a.spinner.Tick)
	}
	if res.Scan != nil {
		scan := res.Scan
		ctx, cancel := context.WithCancel(a.ctx)
		a.cancelScan = cancel
		cmds = append(cmds, func() tea.Msg {
			defer cancel()
			groups, err := scan(ctx)
			return scanSettledMsg{groups: groups, err: err}
		}, a.spinner.Tick)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// articleMarkdown lays out an article for the glamour reader.
func (a *App) articleMarkdown(article news.Article) string {
	var content strings.Builder

	title := article.Title
	if title == "" {
		title = article.URL
	}
	content.WriteString(fmt.Sprintf("# %s\n\n", title))

	var meta []string
	if article.SourceCountry != "" {
		meta = append(meta, article.SourceCountry)
	}
	if article.Domain != "" {
		meta = append(meta, article.Domain)
	}
	seen, ok := article.Seen()
	meta = append(meta, age(seen, ok, a.now()))
	if article.Language != "" {
		meta = append(meta, article.Language)
	}
	content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(meta, " • ")))

	if article.URL != "" {
		content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", article.URL))
	}
	if article.SocialImage != "" {
		content.WriteString(fmt.Sprintf("**Image:** %s\n\n", article.SocialImage))
	}

	content.WriteString("---\n\n")

	if body := article.Body(); body != "" {
		content.WriteString(body)
	} else {
		content.WriteString("_No preview text available. Press enter to open the article._")
	}
	return content.String()
}

func (a *App) renderArticle(article news.Article) tea.Cmd {
	r, err := a.getRenderer()
	markdown := a.articleMarkdown(article)
	return func() tea.Msg {
		if err != nil {
			return articleRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(markdown)
		if err != nil {
			return articleRenderedMsg{content: fmt.Sprintf("# Error\n\nFailed to render article: %s\n\nPress Escape to go back.", err.Error())}
		}
		return articleRenderedMsg{content: rendered}
	}
}

// openReader switches to the reader for article, remembering where to
// return to.
func (a *App) openReader(article news.Article) tea.Cmd {
	a.previousView = a.view
	a.view = ViewReader
	a.currentArticle = &article
	a.loadingArticle = true
	return a.renderArticle(article)
}

func (a *App) performFind(query string) tea.Cmd {
	searcher := a.deps.Searcher
	return func() tea.Msg {
		if searcher == nil {
			return findResultsMsg{query: query}
		}
		results, err := searcher.Search(query, 50)
		if err != nil {
			return findResultsMsg{query: query, err: wrapErr("find", err)}
		}
		return findResultsMsg{query: query, results: results}
	}
}

func (a *App) openURL(raw string) tea.Cmd {
	launcher := a.deps.Launcher
	return func() tea.Msg {
		if launcher == nil {
			return errorMsg{err: errNoLauncher}
		}
		if err := launcher.Open(raw); err != nil {
			return errorMsg{err: wrapErr("opening link", err)}
		}
		return nil
	}
}

// loadRecent fills the search form's recall list from query history.
func (a *App) loadRecent() {
	a.recent = nil
	a.recentIndex = -1
	if a.deps.History == nil {
		return
	}
	entries, err := a.deps.History(recentQueries)
	if err != nil {
		a.err = wrapErr("loading recent queries", err)
		return
	}
	a.recent = entries
}
