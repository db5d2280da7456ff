// Package app holds the client's application state and the single
// dispatcher through which every action mutates it. Renderers read the
// state and the article store; they never mutate either.
package app

import (
	"time"

	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/paging"
)

// NoticeKind is the severity of a status notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarn
	NoticeError
)

// Notice is a dismissible status message.
type Notice struct {
	Kind NoticeKind
	Text string
}

// ModalSelection is an open country overlay. Articles is a copy taken when
// the modal opened; later fetches do not change it.
type ModalSelection struct {
	Country  string
	Articles []news.Article
	Page     int
}

// Cursor returns the modal's page cursor.
func (m *ModalSelection) Cursor() paging.Cursor {
	return paging.Cursor{Page: m.Page, Size: paging.ModalPageSize}
}

// State is everything the renderers need besides the article store.
type State struct {
	Query         news.Query
	FeedPage      int
	Mode          mapview.Mode
	Modal         *ModalSelection
	Loading       bool
	Fetched       bool
	LastUpdated   time.Time
	LastOutcome   gateway.Kind
	EmptyMessage  string
	FeedError     string
	FeedCollapsed bool
	Dark          bool
	WelcomeOpen   bool
	Notice        *Notice
	Scanning      bool
	Languages     []langdetect.Group
	LastShareURL  string
	LastExport    string
}

// FeedCursor returns the feed's page cursor.
func (s State) FeedCursor() paging.Cursor {
	return paging.Cursor{Page: s.FeedPage, Size: paging.FeedPageSize}
}

// clone copies the state so callers cannot reach into the dispatcher's
// modal snapshot.
func (s State) clone() State {
	if s.Modal != nil {
		m := *s.Modal
		m.Articles = append([]news.Article(nil), s.Modal.Articles...)
		s.Modal = &m
	}
	if s.Notice != nil {
		n := *s.Notice
		s.Notice = &n
	}
	s.Languages = append([]langdetect.Group(nil), s.Languages...)
	return s
}
