package app

import (
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
)

// Action is a user or system event consumed by Dispatcher.Dispatch.
type Action interface {
	action()
}

// SubmitSearch replaces keyword, timespan and country. The sort order is
// kept. It resets the feed to page 1 and fetches.
type SubmitSearch struct {
	Keyword  string
	Timespan news.Timespan
	Country  string
}

// SetTimespan changes only the window; it resets the feed page and fetches.
type SetTimespan struct{ Timespan news.Timespan }

// SetSort re-orders the feed without fetching or resetting the page.
type SetSort struct{ SortBy news.SortBy }

// Refresh re-fetches the current query. Retry is the same action offered
// after a failure.
type Refresh struct{}
type Retry struct{}

// FetchSettled delivers a gateway outcome.
type FetchSettled struct{ Outcome gateway.Outcome }

type ToggleVisualization struct{ Mode mapview.Mode }

type SetFeedPage struct{ Page int }
type SetModalPage struct{ Page int }

// OpenCountry flies the map to a country and opens its modal.
type OpenCountry struct{ Country string }
type CloseModal struct{}

type Share struct{}
type Export struct{ Format export.Format }

type ToggleTheme struct{}
type ToggleFeed struct{}

// ShowWelcome reopens the onboarding overlay.
type ShowWelcome struct{}

// DismissWelcome closes onboarding; DontShowAgain persists the choice.
type DismissWelcome struct{ DontShowAgain bool }

type ResetView struct{}
type DismissNotice struct{}

type ScanLanguages struct{}
type ScanSettled struct {
	Groups []langdetect.Group
	Err    error
}

func (SubmitSearch) action()        {}
func (SetTimespan) action()         {}
func (SetSort) action()             {}
func (Refresh) action()             {}
func (Retry) action()               {}
func (FetchSettled) action()        {}
func (ToggleVisualization) action() {}
func (SetFeedPage) action()         {}
func (SetModalPage) action()        {}
func (OpenCountry) action()         {}
func (CloseModal) action()          {}
func (Share) action()               {}
func (Export) action()              {}
func (ToggleTheme) action()         {}
func (ToggleFeed) action()          {}
func (ShowWelcome) action()         {}
func (DismissWelcome) action()      {}
func (ResetView) action()           {}
func (DismissNotice) action()       {}
func (ScanLanguages) action()       {}
func (ScanSettled) action()         {}
