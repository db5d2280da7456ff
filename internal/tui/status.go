package tui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading news…"
	MsgScanning       = "Detecting languages…"
	MsgLoadingArticle = "Loading article…"
	MsgNoResults      = "No results"
	MsgRetryHint      = "press r to retry"
	MsgUnknownDate    = "Unknown date"
)

// StatusKind is the severity the status bar colours a message by.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// noticeTTL is how long a notice stays before it is dismissed for the user.
const noticeTTL = 6 * time.Second

func MsgArticleCount(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgSummary is the map header line: articles, countries and freshness.
func MsgSummary(articles, countries int, updated, now time.Time) string {
	base := fmt.Sprintf("%s articles • %s countries", humanize.Comma(int64(articles)), humanize.Comma(int64(countries)))
	if !updated.IsZero() {
		base += " • updated " + humanize.RelTime(updated, now, "ago", "from now")
	}
	return base
}

// age renders a relative article age, or MsgUnknownDate when the seendate
// does not parse.
func age(seen time.Time, ok bool, now time.Time) string {
	if !ok {
		return MsgUnknownDate
	}
	return humanize.RelTime(seen, now, "ago", "from now")
}
