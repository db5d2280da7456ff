package app

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/geocode"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/storage"
)

type relayStub struct {
	mu     sync.Mutex
	status int
	body   string
	calls  int
}

func (r *relayStub) set(status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status, r.body = status, body
}

func (r *relayStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *relayStub) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	status, body := r.status, r.body
	r.calls++
	r.mu.Unlock()
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type harness struct {
	d      *Dispatcher
	relay  *relayStub
	store  *news.Store
	canvas *mapview.Canvas
	prefs  *storage.Store
	dir    string
	copied []string
}

const (
	twoFranceOneJapan = `{"status":"success","data":[
		{"url":"f1","title":"Paris, \"quake\"","sourcecountry":"France","seendate":"20240101T000000Z"},
		{"url":"j1","title":"Tokyo","sourcecountry":"Japan","seendate":"20240102T000000Z"},
		{"url":"f2","title":"Lyon","sourcecountry":"France","seendate":"20240103T000000Z"}]}`
	threeFrance = `{"status":"success","data":[
		{"url":"f1","sourcecountry":"France"},
		{"url":"f2","sourcecountry":"France"},
		{"url":"f3","sourcecountry":"France"}]}`
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{relay: &relayStub{status: 200, body: twoFranceOneJapan}, dir: t.TempDir()}
	srv := httptest.NewServer(h.relay)
	t.Cleanup(srv.Close)

	client, err := gateway.New(gateway.Options{Endpoint: srv.URL})
	require.NoError(t, err)

	table := geocode.New(map[string]geocode.Coord{
		"France": {Lat: 48.8566, Lon: 2.3522},
		"Japan":  {Lat: 35.6762, Lon: 139.6503},
	})
	h.canvas = mapview.NewCanvas(mapview.Camera{Zoom: 2}, 2)
	h.canvas.SetSize(60, 20)
	h.store = news.NewStore()

	h.prefs, err = storage.NewStore(filepath.Join(h.dir, "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.prefs.Close() })

	h.d = New(Deps{
		Fetcher:   client,
		Store:     h.store,
		Map:       mapview.NewRenderer(h.canvas, table, mapview.DefaultOptions()),
		Prefs:     h.prefs,
		Scanner:   langdetect.NewScanner(langdetect.NewScriptDetector("en"), "en", 0.6, 0),
		ExportDir: filepath.Join(h.dir, "exports"),
		ShareBase: "http://localhost:8080/",
		Clipboard: func(s string) error { h.copied = append(h.copied, s); return nil },
	}, news.DefaultQuery())
	return h
}

// run dispatches a, completes any fetch it started, and returns the state.
func (h *harness) run(t *testing.T, a Action) State {
	t.Helper()
	h.settle(t, h.d.Dispatch(a))
	return h.d.State()
}

func (h *harness) settle(t *testing.T, res Result) {
	t.Helper()
	if res.Ticket != nil {
		out := res.Ticket.Do(context.Background())
		h.d.Dispatch(FetchSettled{Outcome: out})
	}
	if res.Scan != nil {
		groups, err := res.Scan(context.Background())
		h.d.Dispatch(ScanSettled{Groups: groups, Err: err})
	}
}

func TestDispatcher_InitialFetchPopulatesStoreAndMap(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	st := h.d.State()
	assert.False(t, st.Loading)
	assert.True(t, st.Fetched)
	assert.Equal(t, gateway.KindSuccess, st.LastOutcome)
	assert.Len(t, h.store.Snapshot().Articles, 3)
	require.Len(t, h.canvas.Layers(), 1)
	assert.Len(t, h.canvas.Layers()[0].Markers, 2)
}

func TestDispatcher_ModalFreezesOnOpen(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	st := h.run(t, OpenCountry{Country: "France"})
	require.NotNil(t, st.Modal)
	assert.Len(t, st.Modal.Articles, 2)
	assert.Equal(t, mapview.Camera{Center: geocode.Coord{Lat: 48.8566, Lon: 2.3522}, Zoom: 5}, h.canvas.Camera())

	h.relay.set(200, threeFrance)
	st = h.run(t, Refresh{})
	assert.Equal(t, 3, h.store.Snapshot().Groups.Count("France"))
	require.NotNil(t, st.Modal)
	assert.Len(t, st.Modal.Articles, 2, "open modal keeps its snapshot")

	h.run(t, CloseModal{})
	st = h.run(t, OpenCountry{Country: "France"})
	assert.Len(t, st.Modal.Articles, 3)
}

func TestDispatcher_SecondTriggerDroppedWhileInFlight(t *testing.T) {
	h := newHarness(t)

	first := h.d.Start()
	require.NotNil(t, first.Ticket)
	assert.True(t, h.d.State().Loading)

	second := h.d.Dispatch(SubmitSearch{Keyword: "flood"})
	assert.Nil(t, second.Ticket)
	assert.Equal(t, "flood", h.d.State().Query.Keyword, "query state still updates")

	h.settle(t, first)
	assert.Equal(t, 1, h.relay.count())

	third := h.d.Dispatch(Refresh{})
	require.NotNil(t, third.Ticket)
	assert.Equal(t, "flood", third.Ticket.Query().Keyword)
	h.settle(t, third)
	assert.Equal(t, 2, h.relay.count())
}

func TestDispatcher_EmptyMessageNamesFetchedKeyword(t *testing.T) {
	h := newHarness(t)
	h.relay.set(200, `{"status":"empty","data":[]}`)

	first := h.d.Start()
	require.NotNil(t, first.Ticket)
	dropped := h.d.Dispatch(SubmitSearch{Keyword: "flood"})
	assert.Nil(t, dropped.Ticket)

	h.settle(t, first)
	assert.Equal(t, `No results found for "earthquake"`, h.d.State().EmptyMessage)
}

func TestDispatcher_PagingRules(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	h.run(t, SetFeedPage{Page: 3})
	st := h.run(t, SetSort{SortBy: news.SortByCountry})
	assert.Equal(t, 3, st.FeedPage, "sort keeps the page")
	assert.Equal(t, news.SortByCountry, st.Query.SortBy)

	st = h.run(t, SetTimespan{Timespan: news.Timespan7d})
	assert.Equal(t, 1, st.FeedPage)
	assert.Equal(t, news.Timespan7d, st.Query.Timespan)

	h.run(t, SetFeedPage{Page: 2})
	st = h.run(t, SubmitSearch{Keyword: "fire", Timespan: "bogus"})
	assert.Equal(t, 1, st.FeedPage)
	assert.Equal(t, news.DefaultTimespan, st.Query.Timespan)
	assert.Equal(t, news.SortByCountry, st.Query.SortBy, "search keeps the sort order")

	recent, err := h.prefs.RecentQueries(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fire", recent[0].Keyword)
}

func TestDispatcher_FailureKeepsStore(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	h.relay.set(500, `{"status":"error","error":"Failed to fetch news"}`)
	st := h.run(t, Refresh{})

	assert.Equal(t, gateway.KindFailure, st.LastOutcome)
	assert.NotEmpty(t, st.FeedError)
	require.NotNil(t, st.Notice)
	assert.Equal(t, NoticeError, st.Notice.Kind)
	assert.Len(t, h.store.Snapshot().Articles, 3)

	h.relay.set(200, twoFranceOneJapan)
	st = h.run(t, Retry{})
	assert.Empty(t, st.FeedError)
}

func TestDispatcher_EmptyClearsStoreAndMap(t *testing.T) {
	for _, body := range []string{`{"status":"empty","data":[]}`, `{"status":"success","data":[]}`} {
		h := newHarness(t)
		h.settle(t, h.d.Start())

		h.relay.set(200, body)
		st := h.run(t, SubmitSearch{Keyword: "nothing"})

		assert.True(t, h.store.Snapshot().Empty())
		assert.Equal(t, `No results found for "nothing"`, st.EmptyMessage)
		require.Len(t, h.canvas.Layers(), 1)
		assert.True(t, h.canvas.Layers()[0].Empty())
		assert.Nil(t, st.Notice, "empty is not an error")
	}
}

func TestDispatcher_OpenCountryNotices(t *testing.T) {
	h := newHarness(t)
	h.relay.set(200, `{"status":"success","data":[{"url":"p","sourcecountry":"Peru"}]}`)
	h.settle(t, h.d.Start())

	st := h.run(t, OpenCountry{Country: "Peru"})
	assert.Nil(t, st.Modal)
	require.NotNil(t, st.Notice)
	assert.Equal(t, "No map location available for Peru", st.Notice.Text)

	st = h.run(t, OpenCountry{Country: "France"})
	assert.Nil(t, st.Modal)
	assert.Equal(t, "No articles available for this region.", st.Notice.Text)

	st = h.run(t, DismissNotice{})
	assert.Nil(t, st.Notice)
}

func TestDispatcher_ExportUsesModalSnapshot(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())
	h.run(t, OpenCountry{Country: "France"})

	st := h.run(t, Export{Format: export.FormatCSV})
	require.NotEmpty(t, st.LastExport)
	assert.Equal(t, "gdelt-news-earthquake-24h.csv", filepath.Base(st.LastExport))

	f, err := os.Open(st.LastExport)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `Paris, "quake"`, records[1][1])
	for _, r := range records[1:] {
		assert.Equal(t, "France", r[2])
	}

	h.run(t, CloseModal{})
	st = h.run(t, Export{Format: export.FormatJSON})
	assert.Equal(t, NoticeSuccess, st.Notice.Kind)
	assert.Contains(t, st.Notice.Text, "Exported 3 articles")
}

func TestDispatcher_ExportWithNoData(t *testing.T) {
	h := newHarness(t)
	st := h.run(t, Export{Format: export.FormatCSV})
	require.NotNil(t, st.Notice)
	assert.Equal(t, export.NoDataMessage, st.Notice.Text)
}

func TestDispatcher_ShareIncludesModalCountry(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	st := h.run(t, Share{})
	assert.Equal(t, "http://localhost:8080/?q=earthquake&timespan=24h", st.LastShareURL)

	h.run(t, OpenCountry{Country: "Japan"})
	st = h.run(t, Share{})
	assert.Equal(t, "http://localhost:8080/?country=Japan&q=earthquake&timespan=24h", st.LastShareURL)
	assert.Equal(t, NoticeSuccess, st.Notice.Kind)
	assert.Len(t, h.copied, 2)
}

func TestDispatcher_ShareWithoutClipboard(t *testing.T) {
	h := newHarness(t)
	h.d.deps.Clipboard = func(string) error { return errors.New("no display") }
	st := h.run(t, Share{})
	assert.Equal(t, NoticeInfo, st.Notice.Kind)
	assert.Contains(t, st.Notice.Text, st.LastShareURL)
}

func TestDispatcher_ToggleVisualizationKeepsOneLayer(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())

	st := h.run(t, ToggleVisualization{Mode: mapview.ModeClusters})
	assert.Equal(t, mapview.ModeClusters, st.Mode)
	st = h.run(t, ToggleVisualization{Mode: mapview.ModeClusters})
	assert.Equal(t, mapview.ModeMarkers, st.Mode)
	require.Len(t, h.canvas.Layers(), 1)
	assert.Equal(t, mapview.ModeMarkers, h.canvas.Layers()[0].Mode)

	st = h.run(t, ToggleVisualization{Mode: mapview.ModeHeatmap})
	assert.Equal(t, mapview.ModeHeatmap, h.canvas.Layers()[0].Mode)
	assert.Nil(t, st.Notice)
}

func TestDispatcher_PrefsPersist(t *testing.T) {
	h := newHarness(t)
	st := h.d.State()
	assert.False(t, st.Dark)
	assert.True(t, st.WelcomeOpen)

	h.run(t, ToggleTheme{})
	h.run(t, DismissWelcome{DontShowAgain: true})

	again := New(Deps{Fetcher: h.d.deps.Fetcher, Store: news.NewStore(), Map: h.d.deps.Map, Prefs: h.prefs}, news.DefaultQuery())
	st = again.State()
	assert.True(t, st.Dark)
	assert.False(t, st.WelcomeOpen)

	again.Dispatch(ShowWelcome{})
	assert.True(t, again.State().WelcomeOpen)
}

func TestDispatcher_LanguageScan(t *testing.T) {
	h := newHarness(t)
	h.relay.set(200, `{"status":"success","data":[
		{"url":"r","title":"Землетрясение произошло у побережья Камчатки","sourcecountry":"Russia"},
		{"url":"e","title":"Earthquake reported near the coast today","sourcecountry":"Japan"}]}`)
	h.settle(t, h.d.Start())

	st := h.run(t, ScanLanguages{})
	assert.False(t, st.Scanning)
	require.Len(t, st.Languages, 1)
	assert.Equal(t, "ru", st.Languages[0].Code)
}

func TestDispatcher_StateIsACopy(t *testing.T) {
	h := newHarness(t)
	h.settle(t, h.d.Start())
	h.run(t, OpenCountry{Country: "France"})

	st := h.d.State()
	st.Modal.Articles[0].URL = "mutated"
	st.Modal.Page = 9
	assert.Equal(t, "f1", h.d.State().Modal.Articles[0].URL)
	assert.Equal(t, 1, h.d.State().Modal.Page)
}
