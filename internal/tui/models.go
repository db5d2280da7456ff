package tui

import (
	"fmt"

	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/search"
)

// View is the overlay currently taking keyboard input. The country modal
// and the welcome screen are not views; they follow the dispatcher state.
type View int

const (
	ViewMain View = iota
	ViewReader
	ViewSearch
	ViewFind
	ViewShare
	ViewExport
	ViewLanguages
	ViewHelp
)

// Panel is which half of the main view has focus.
type Panel int

const (
	PanelFeed Panel = iota
	PanelMap
)

type fetchSettledMsg struct {
	outcome gateway.Outcome
}

type scanSettledMsg struct {
	groups []langdetect.Group
	err    error
}

type articleRenderedMsg struct {
	content string
}

type findResultsMsg struct {
	query   string
	results []*search.Result
	err     error
}

type findDebounceFireMsg struct {
	seq int
}

type noticeExpiredMsg struct {
	seq int
}

type errorMsg struct {
	err error
}

// findResultItem is a bleve hit in the find overlay list.
type findResultItem struct {
	result *search.Result
}

func (i findResultItem) Title() string {
	a := i.result.Article
	title := a.Title
	if title == "" {
		title = a.URL
	}
	if a.SourceCountry != "" {
		return fmt.Sprintf("[%s] %s", a.SourceCountry, title)
	}
	return title
}

func (i findResultItem) Description() string {
	if i.result.Snippet != "" {
		return i.result.Snippet
	}
	return i.result.Article.Domain
}

func (i findResultItem) FilterValue() string { return i.result.Article.Title }

func (i findResultItem) article() news.Article { return i.result.Article }
