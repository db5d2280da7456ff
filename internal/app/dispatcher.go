package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/storage"
)

// Fetcher reserves the single fetch slot.
type Fetcher interface {
	Begin(q news.Query) (*gateway.Ticket, bool)
}

// Prefs persists boolean flags and query history. *storage.Store satisfies it.
type Prefs interface {
	GetBool(key string) bool
	SetBool(key string, value bool) error
	AddHistory(entry storage.HistoryEntry) error
}

// Deps wires the dispatcher to its collaborators. Prefs, Scanner and
// Clipboard are optional.
type Deps struct {
	Fetcher   Fetcher
	Store     *news.Store
	Map       *mapview.Renderer
	Prefs     Prefs
	Scanner   *langdetect.Scanner
	ExportDir string
	ShareBase string
	Clipboard func(string) error
	Now       func() time.Time
}

// Result tells the caller what asynchronous work an action started.
type Result struct {
	// Ticket, when set, must be run with Ticket.Do and its outcome fed
	// back as FetchSettled.
	Ticket *gateway.Ticket
	// Scan, when set, must be run and its result fed back as ScanSettled.
	Scan func(ctx context.Context) ([]langdetect.Group, error)
}

// Dispatcher is the only writer of State. It is not safe for concurrent
// use; the UI loop calls it from one goroutine.
type Dispatcher struct {
	deps  Deps
	state State
}

func New(deps Deps, initial news.Query) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	d := &Dispatcher{deps: deps}
	d.state = State{
		Query:       initial.Normalize(),
		FeedPage:    1,
		Mode:        mapview.ModeMarkers,
		WelcomeOpen: true,
	}
	if deps.Prefs != nil {
		d.state.Dark = deps.Prefs.GetBool(storage.PrefDarkMode)
		d.state.WelcomeOpen = !deps.Prefs.GetBool(storage.PrefWelcomeDismissed)
	}
	return d
}

// State returns a copy of the current state.
func (d *Dispatcher) State() State {
	return d.state.clone()
}

// Start issues the first fetch for the initial query.
func (d *Dispatcher) Start() Result {
	return d.fetch()
}

func (d *Dispatcher) Dispatch(a Action) Result {
	switch a := a.(type) {
	case SubmitSearch:
		q := news.Query{
			Keyword:  a.Keyword,
			Timespan: a.Timespan,
			Country:  a.Country,
			SortBy:   d.state.Query.SortBy,
		}.Normalize()
		d.state.Query = q
		d.state.FeedPage = 1
		d.recordHistory(q)
		return d.fetch()

	case SetTimespan:
		d.state.Query.Timespan = news.NormalizeTimespan(string(a.Timespan))
		d.state.FeedPage = 1
		return d.fetch()

	case SetSort:
		if _, err := news.ParseSortBy(string(a.SortBy)); err == nil {
			d.state.Query.SortBy = a.SortBy
		}

	case Refresh, Retry:
		return d.fetch()

	case FetchSettled:
		d.settle(a.Outcome)

	case ToggleVisualization:
		notice := d.deps.Map.Toggle(a.Mode)
		d.state.Mode = d.deps.Map.Mode()
		if notice != "" {
			d.notify(NoticeWarn, notice)
		}

	case SetFeedPage:
		d.state.FeedPage = a.Page

	case SetModalPage:
		if d.state.Modal != nil {
			d.state.Modal.Page = a.Page
		}

	case OpenCountry:
		d.openCountry(a.Country)

	case CloseModal:
		d.state.Modal = nil

	case Share:
		d.share()

	case Export:
		d.export(a.Format)

	case ToggleTheme:
		d.state.Dark = !d.state.Dark
		d.persist(storage.PrefDarkMode, d.state.Dark)

	case ToggleFeed:
		d.state.FeedCollapsed = !d.state.FeedCollapsed

	case ShowWelcome:
		d.state.WelcomeOpen = true

	case DismissWelcome:
		d.state.WelcomeOpen = false
		if a.DontShowAgain {
			d.persist(storage.PrefWelcomeDismissed, true)
		}

	case ResetView:
		d.deps.Map.ResetView()

	case DismissNotice:
		d.state.Notice = nil

	case ScanLanguages:
		return d.scan()

	case ScanSettled:
		d.state.Scanning = false
		switch {
		case a.Err != nil && !errors.Is(a.Err, context.Canceled):
			d.notify(NoticeError, fmt.Sprintf("Language scan failed: %v", a.Err))
		case len(a.Groups) == 0:
			d.notify(NoticeInfo, "No foreign language content detected")
		}
		d.state.Languages = a.Groups

	default:
		debuglog.Warnf("app: unhandled action %T", a)
	}
	return Result{}
}

// fetch reserves the gateway slot for the current query. While a fetch is
// outstanding the trigger is dropped and nothing changes.
func (d *Dispatcher) fetch() Result {
	ticket, ok := d.deps.Fetcher.Begin(d.state.Query)
	if !ok {
		return Result{}
	}
	d.state.Loading = true
	return Result{Ticket: ticket}
}

func (d *Dispatcher) settle(out gateway.Outcome) {
	d.state.Loading = false
	d.state.Fetched = true
	d.state.LastOutcome = out.Kind

	switch {
	case out.Kind == gateway.KindFailure:
		d.state.FeedError = out.Message
		d.notify(NoticeError, "Failed to load news: "+out.Message)
		return

	case out.NoResults():
		d.deps.Store.Clear()
		d.deps.Map.Clear()
		d.state.FeedError = ""
		// Name the keyword that was fetched; a search dropped while this
		// fetch was in flight may already have changed the query state.
		keyword := out.Query.Keyword
		if keyword == "" {
			keyword = d.state.Query.Keyword
		}
		d.state.EmptyMessage = fmt.Sprintf("No results found for %q", keyword)
		if out.Kind == gateway.KindEmpty && out.Message != "" {
			debuglog.Infof("app: relay reported empty result: %s", out.Message)
		}

	default:
		snap := d.deps.Store.Replace(out.Articles)
		d.state.FeedError = ""
		d.state.EmptyMessage = ""
		if notice := d.deps.Map.Draw(snap); notice != "" {
			d.notify(NoticeWarn, notice)
		}
	}
	d.state.LastUpdated = d.deps.Now()
}

func (d *Dispatcher) openCountry(country string) {
	snap := d.deps.Store.Snapshot()
	articles := snap.Groups.Articles(country)
	if len(articles) == 0 {
		d.notify(NoticeWarn, "No articles available for this region.")
		return
	}
	if !d.deps.Map.Activate(country) {
		d.notify(NoticeWarn, fmt.Sprintf("No map location available for %s", country))
		return
	}
	d.state.Modal = &ModalSelection{
		Country:  country,
		Articles: append([]news.Article(nil), articles...),
		Page:     1,
	}
}

func (d *Dispatcher) share() {
	country := ""
	if d.state.Modal != nil {
		country = d.state.Modal.Country
	}
	link, err := export.ShareURL(d.deps.ShareBase, d.state.Query, country)
	if err != nil {
		d.notify(NoticeError, fmt.Sprintf("Could not build share link: %v", err))
		return
	}
	d.state.LastShareURL = link

	if d.deps.Clipboard != nil {
		err := d.deps.Clipboard(link)
		if err == nil {
			d.notify(NoticeSuccess, "Share link copied to clipboard")
			return
		}
		debuglog.Debugf("app: clipboard unavailable: %v", err)
	}
	d.notify(NoticeInfo, "Share link: "+link)
}

// export writes the open modal's snapshot, or the whole store when no modal
// is open.
func (d *Dispatcher) export(format export.Format) {
	articles := d.deps.Store.Snapshot().Articles
	if d.state.Modal != nil {
		articles = d.state.Modal.Articles
	}
	path, err := export.SaveFile(d.deps.ExportDir, d.state.Query, format, articles)
	switch {
	case errors.Is(err, export.ErrNoData):
		d.notify(NoticeWarn, export.NoDataMessage)
	case err != nil:
		d.notify(NoticeError, fmt.Sprintf("Export failed: %v", err))
	default:
		d.state.LastExport = path
		d.notify(NoticeSuccess, fmt.Sprintf("Exported %d articles to %s", len(articles), path))
	}
}

func (d *Dispatcher) scan() Result {
	if d.deps.Scanner == nil {
		d.notify(NoticeWarn, "Language detection is not configured")
		return Result{}
	}
	if d.state.Scanning {
		return Result{}
	}
	articles := d.deps.Store.Snapshot().Articles
	if len(articles) == 0 {
		d.notify(NoticeInfo, "No articles to scan")
		return Result{}
	}
	d.state.Scanning = true
	scanner := d.deps.Scanner
	return Result{Scan: func(ctx context.Context) ([]langdetect.Group, error) {
		return scanner.Scan(ctx, articles)
	}}
}

func (d *Dispatcher) recordHistory(q news.Query) {
	if d.deps.Prefs == nil {
		return
	}
	entry := storage.HistoryEntry{Keyword: q.Keyword, Timespan: string(q.Timespan), Country: q.Country, At: d.deps.Now()}
	if err := d.deps.Prefs.AddHistory(entry); err != nil {
		debuglog.Warnf("app: recording history: %v", err)
	}
}

func (d *Dispatcher) persist(key string, v bool) {
	if d.deps.Prefs == nil {
		return
	}
	if err := d.deps.Prefs.SetBool(key, v); err != nil {
		debuglog.Warnf("app: saving %s: %v", key, err)
		d.notify(NoticeWarn, "Could not save preference")
	}
}

func (d *Dispatcher) notify(kind NoticeKind, text string) {
	d.state.Notice = &Notice{Kind: kind, Text: text}
}
