package storage

import (
	"time"
)

// Preference keys. Both are absent-safe booleans.
const (
	PrefDarkMode         = "dark_mode"
	PrefWelcomeDismissed = "welcome_dismissed"
)

// HistoryEntry is one submitted query.
type HistoryEntry struct {
	Keyword  string    `json:"keyword"`
	Timespan string    `json:"timespan"`
	Country  string    `json:"country,omitempty"`
	At       time.Time `json:"at"`
}

func (h HistoryEntry) sameQuery(o HistoryEntry) bool {
	return h.Keyword == o.Keyword && h.Timespan == o.Timespan && h.Country == o.Country
}
