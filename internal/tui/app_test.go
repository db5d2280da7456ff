package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/geocode"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/search"
	"github.com/pders01/newsmap/internal/storage"
)

const threeArticles = `{"status":"success","data":[
	{"url":"https://news.example.org/paris","title":"Paris quake felt","sourcecountry":"France","domain":"example.org","seendate":"20240101T000000Z"},
	{"url":"https://news.example.org/tokyo","title":"Tokyo rain warning","sourcecountry":"Japan","domain":"example.org","seendate":"20240102T000000Z","content":"Heavy rain expected"},
	{"url":"https://news.example.org/lyon","title":"Lyon aftershock","sourcecountry":"France","domain":"example.org","seendate":"20240103T000000Z"}]}`

type relayStub struct {
	mu     sync.Mutex
	status int
	body   string
	calls  int
	last   string
}

func (r *relayStub) set(status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status, r.body = status, body
}

func (r *relayStub) snapshot() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.last
}

func (r *relayStub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	status, body := r.status, r.body
	r.calls++
	r.last = req.URL.RawQuery
	r.mu.Unlock()
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type prefsStub struct {
	bools   map[string]bool
	history []storage.HistoryEntry
}

func (p *prefsStub) GetBool(key string) bool { return p.bools[key] }

func (p *prefsStub) SetBool(key string, value bool) error {
	p.bools[key] = value
	return nil
}

func (p *prefsStub) AddHistory(entry storage.HistoryEntry) error {
	p.history = append([]storage.HistoryEntry{entry}, p.history...)
	return nil
}

type testHarness struct {
	app   *App
	relay *relayStub
	prefs *prefsStub
	dir   string
}

func newTestHarness(t *testing.T, body string) *testHarness {
	t.Helper()
	h := &testHarness{
		relay: &relayStub{status: http.StatusOK, body: body},
		prefs: &prefsStub{bools: map[string]bool{}},
		dir:   t.TempDir(),
	}
	srv := httptest.NewServer(h.relay)
	t.Cleanup(srv.Close)

	client, err := gateway.New(gateway.Options{Endpoint: srv.URL})
	require.NoError(t, err)

	table := geocode.New(map[string]geocode.Coord{
		"France": {Lat: 48.8566, Lon: 2.3522},
		"Japan":  {Lat: 35.6762, Lon: 139.6503},
		"Russia": {Lat: 55.7558, Lon: 37.6173},
	})
	canvas := mapview.NewCanvas(mapview.Camera{Zoom: 2}, 2)
	renderer := mapview.NewRenderer(canvas, table, mapview.DefaultOptions())
	store := news.NewStore()

	searcher, err := search.NewBleveEngine()
	require.NoError(t, err)

	dispatcher := app.New(app.Deps{
		Fetcher:   client,
		Store:     store,
		Map:       renderer,
		Prefs:     h.prefs,
		Scanner:   langdetect.NewScanner(langdetect.NewScriptDetector("en"), "en", 0.6, 0),
		ExportDir: filepath.Join(h.dir, "exports"),
		ShareBase: "http://localhost:8080/",
	}, news.DefaultQuery())

	cfg := config.TestConfig()
	cfg.Export.Dir = filepath.Join(h.dir, "exports")

	h.app = NewApp(Deps{
		Dispatcher: dispatcher,
		Store:      store,
		Canvas:     canvas,
		Map:        renderer,
		Searcher:   searcher,
		History: func(n int) ([]storage.HistoryEntry, error) {
			if len(h.prefs.history) < n {
				n = len(h.prefs.history)
			}
			return h.prefs.history[:n], nil
		},
		Now: func() time.Time { return time.Date(2024, 1, 3, 2, 0, 0, 0, time.UTC) },
	}, cfg)
	h.app.findDebounce = 0
	h.app.noticeTTL = 0

	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// start runs the initial fetch and dismisses the welcome screen.
func (h *testHarness) start(t *testing.T) {
	t.Helper()
	h.run(h.app.Init())
	require.True(t, h.app.state().Fetched)
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, h.app.state().WelcomeOpen)
}

func (h *testHarness) send(msg tea.Msg) {
	_, cmd := h.app.Update(msg)
	h.run(cmd)
}

// press sends a key and runs whatever asynchronous work it started.
func (h *testHarness) press(msg tea.KeyMsg) {
	h.send(msg)
}

func (h *testHarness) typeKey(s string) {
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// run executes cmd and feeds back the messages the app reacts to. Timer,
// spinner and cursor messages are dropped.
func (h *testHarness) run(cmd tea.Cmd) {
	for _, msg := range drain(cmd) {
		switch msg.(type) {
		case fetchSettledMsg, scanSettledMsg, articleRenderedMsg, findResultsMsg, findDebounceFireMsg, errorMsg:
			h.send(msg)
		}
	}
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func articlesBody(n int) string {
	var b strings.Builder
	b.WriteString(`{"status":"success","data":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"url":"https://news.example.org/%d","title":"Story %d","sourcecountry":"France","seendate":"202401%02dT000000Z"}`, i, i, i%28+1)
	}
	b.WriteString("]}")
	return b.String()
}

func TestApp_InitialFetchShowsWelcomeThenFeed(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.run(h.app.Init())

	assert.True(t, h.app.state().Fetched)
	assert.Contains(t, h.app.View(), "don't show again")

	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	view := h.app.View()
	assert.Contains(t, view, "Lyon aftershock")
	assert.Contains(t, view, "Tokyo rain warning")
	assert.Contains(t, view, "3 articles")
	assert.Contains(t, view, "markers")
	assert.False(t, h.prefs.bools[storage.PrefWelcomeDismissed], "plain dismissal is not persisted")
}

func TestApp_WelcomeDontShowAgainPersists(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.typeKey("x")
	assert.False(t, h.app.state().WelcomeOpen)
	assert.True(t, h.prefs.bools[storage.PrefWelcomeDismissed])

	h.typeKey("w")
	assert.True(t, h.app.state().WelcomeOpen)
}

func TestApp_FailureShowsRetryAndRetryRefetches(t *testing.T) {
	h := newTestHarness(t, "")
	h.relay.set(http.StatusBadGateway, "upstream down")
	h.start(t)

	st := h.app.state()
	assert.NotEmpty(t, st.FeedError)
	assert.Contains(t, h.app.View(), MsgRetryHint)

	h.relay.set(http.StatusOK, threeArticles)
	h.typeKey("r")

	st = h.app.state()
	assert.Empty(t, st.FeedError)
	assert.Len(t, h.app.deps.Store.Snapshot().Articles, 3)
	calls, _ := h.relay.snapshot()
	assert.Equal(t, 2, calls)
}

func TestApp_EmptyResultShowsMessage(t *testing.T) {
	h := newTestHarness(t, `{"status":"empty","message":"No results found for the given criteria.","data":[]}`)
	h.start(t)
	assert.Contains(t, h.app.View(), `No results found for "earthquake"`)
}

func TestApp_SearchFormSubmitsNormalizedQuery(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("s")
	require.Equal(t, ViewSearch, h.app.view)
	assert.Equal(t, news.DefaultKeyword, h.app.searchInputs[searchKeyword].Value())
	assert.Equal(t, "24h", h.app.searchInputs[searchTimespan].Value())

	h.app.searchInputs[searchKeyword].SetValue("  flood\twarning ")
	h.app.searchInputs[searchTimespan].SetValue("2w")
	h.app.searchInputs[searchCountry].SetValue(" Japan ")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewMain, h.app.view)
	q := h.app.state().Query
	assert.Equal(t, "flood warning", q.Keyword)
	assert.Equal(t, news.DefaultTimespan, q.Timespan)
	assert.Equal(t, "Japan", q.Country)

	_, last := h.relay.snapshot()
	assert.Contains(t, last, "q=flood+warning")
	assert.Contains(t, last, "country=Japan")
	require.Len(t, h.prefs.history, 1)
	assert.Equal(t, "flood warning", h.prefs.history[0].Keyword)
}

func TestApp_SearchFormEscapeKeepsQuery(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("s")
	h.app.searchInputs[searchKeyword].SetValue("ignored")
	h.press(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ViewMain, h.app.view)
	assert.Equal(t, news.DefaultKeyword, h.app.state().Query.Keyword)
	calls, _ := h.relay.snapshot()
	assert.Equal(t, 1, calls)
}

func TestApp_SearchFormRecallsHistory(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.prefs.history = []storage.HistoryEntry{
		{Keyword: "storm", Timespan: "6h", Country: "Chile"},
		{Keyword: "election", Timespan: "7d"},
	}
	h.start(t)

	h.typeKey("s")
	require.Len(t, h.app.recent, 2)
	h.press(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "storm", h.app.searchInputs[searchKeyword].Value())
	assert.Equal(t, "Chile", h.app.searchInputs[searchCountry].Value())
	h.press(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "election", h.app.searchInputs[searchKeyword].Value())
	assert.Equal(t, "", h.app.searchInputs[searchCountry].Value())
}

func TestApp_TimespanFetchesSortDoesNot(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("t")
	assert.Equal(t, news.Timespan3d, h.app.state().Query.Timespan)
	calls, last := h.relay.snapshot()
	assert.Equal(t, 2, calls)
	assert.Contains(t, last, "timespan=3d")

	h.typeKey("o")
	assert.Equal(t, news.SortByRelevance, h.app.state().Query.SortBy)
	calls, _ = h.relay.snapshot()
	assert.Equal(t, 2, calls)
}

func TestApp_FeedPaging(t *testing.T) {
	h := newTestHarness(t, articlesBody(12))
	h.start(t)

	articles, total := h.app.feedArticles(h.app.state())
	assert.Len(t, articles, 10)
	assert.Equal(t, 2, total)

	h.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, h.app.state().FeedPage)
	articles, _ = h.app.feedArticles(h.app.state())
	assert.Len(t, articles, 2)

	h.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, h.app.state().FeedPage, "cannot page past the end")

	h.typeKey("o")
	assert.Equal(t, 2, h.app.state().FeedPage, "sort keeps the page")

	h.press(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, h.app.state().FeedPage)
}

func TestApp_FeedSelectionMoves(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.press(tea.KeyMsg{Type: tea.KeyDown})
	h.press(tea.KeyMsg{Type: tea.KeyDown})
	h.press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, h.app.feedIndex)
	h.press(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, h.app.feedIndex)
}

func TestApp_ViewOnMapOpensModalAndExportsSnapshot(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	// Newest first: Lyon (France) is selected.
	h.typeKey("v")
	st := h.app.state()
	require.NotNil(t, st.Modal)
	assert.Equal(t, "France", st.Modal.Country)
	assert.Len(t, st.Modal.Articles, 2)
	assert.Contains(t, h.app.View(), "◉ France")

	h.typeKey("e")
	require.Equal(t, ViewExport, h.app.view)
	h.typeKey("j")
	assert.Equal(t, ViewMain, h.app.view)

	path := h.app.state().LastExport
	require.NotEmpty(t, path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported []map[string]any
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Len(t, exported, 2)

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, h.app.state().Modal)
}

func TestApp_ModalIsFrozenAcrossRefresh(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)
	h.typeKey("v")
	require.NotNil(t, h.app.state().Modal)

	h.relay.set(http.StatusOK, `{"status":"success","data":[{"url":"x","title":"Only","sourcecountry":"France"}]}`)
	h.typeKey("r")

	assert.Len(t, h.app.deps.Store.Snapshot().Articles, 1)
	assert.Len(t, h.app.state().Modal.Articles, 2)
}

func TestApp_MapMarkerCycleAndOpen(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("p")
	require.Equal(t, PanelMap, h.app.focus)

	h.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "France", h.app.marked)
	h.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "Japan", h.app.marked)
	h.press(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "France", h.app.marked)

	h.press(tea.KeyMsg{Type: tea.KeyShiftTab})
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	st := h.app.state()
	require.NotNil(t, st.Modal)
	assert.Equal(t, "Japan", st.Modal.Country)
}

func TestApp_MapPanAndZoom(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)
	h.typeKey("p")

	canvas := h.app.deps.Canvas
	before := canvas.Camera()
	h.press(tea.KeyMsg{Type: tea.KeyRight})
	h.typeKey("+")
	after := canvas.Camera()
	assert.Greater(t, after.Center.Lon, before.Center.Lon)
	assert.Greater(t, after.Zoom, before.Zoom)

	h.typeKey("0")
	assert.Equal(t, before, canvas.Camera())
}

func TestApp_VisualizationToggles(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("c")
	assert.Equal(t, mapview.ModeClusters, h.app.state().Mode)
	assert.Contains(t, h.app.View(), "clusters")

	h.typeKey("h")
	assert.Equal(t, mapview.ModeHeatmap, h.app.state().Mode)
	h.typeKey("h")
	assert.Equal(t, mapview.ModeMarkers, h.app.state().Mode)
	assert.Len(t, h.app.deps.Canvas.Layers(), 1)
}

func TestApp_ShareShowsLink(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("y")
	require.Equal(t, ViewShare, h.app.view)
	link := h.app.state().LastShareURL
	assert.Contains(t, link, "q=earthquake")
	assert.Contains(t, link, "timespan=24h")
	assert.Contains(t, h.app.View(), "share current search")

	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewMain, h.app.view)
}

func TestApp_FindOpensReader(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.Equal(t, ViewFind, h.app.view)
	require.True(t, h.app.findInput.Focused())

	h.typeKey("tokyo")
	require.Len(t, h.app.findList.Items(), 1)
	assert.Contains(t, h.app.View(), "Tokyo rain warning")

	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewReader, h.app.view)
	assert.False(t, h.app.loadingArticle)
	assert.Contains(t, h.app.viewport.View(), "Tokyo")

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewFind, h.app.view)
	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewMain, h.app.view)
}

func TestApp_ReaderFromFeed(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.press(tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, ViewReader, h.app.view)
	require.NotNil(t, h.app.currentArticle)
	assert.Equal(t, "Lyon aftershock", h.app.currentArticle.Title)

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewMain, h.app.view)
	assert.Nil(t, h.app.currentArticle)
}

func TestApp_OpenWithoutLauncherReportsError(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, h.app.err)
	assert.ErrorIs(t, h.app.err, errNoLauncher)
}

func TestApp_ThemeToggle(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	assert.Equal(t, "light", h.app.theme().glamour)
	h.typeKey("d")
	assert.Equal(t, "dark", h.app.theme().glamour)
	assert.True(t, h.prefs.bools[storage.PrefDarkMode])
}

func TestApp_ToggleFeedGivesMapFullWidth(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	w, _ := h.app.deps.Canvas.Size()
	assert.Equal(t, 140*3/5-2, w)

	h.typeKey("b")
	w, _ = h.app.deps.Canvas.Size()
	assert.Equal(t, 140-2, w)
	assert.Equal(t, PanelMap, h.app.focus)
}

func TestApp_LanguageScan(t *testing.T) {
	h := newTestHarness(t, `{"status":"success","data":[
		{"url":"r1","title":"Землетрясение в Москве сегодня утром","sourcecountry":"Russia"},
		{"url":"e1","title":"An earthquake was felt this morning","sourcecountry":"France"}]}`)
	h.start(t)

	h.typeKey("l")
	require.Equal(t, ViewLanguages, h.app.view)
	groups := h.app.state().Languages
	require.Len(t, groups, 1)
	assert.Equal(t, "ru", groups[0].Code)
	assert.Contains(t, h.app.View(), "Russian")

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewMain, h.app.view)
}

func TestApp_NoticeExpires(t *testing.T) {
	h := newTestHarness(t, `{"status":"empty","data":[]}`)
	h.start(t)

	h.typeKey("e")
	h.typeKey("c")
	st := h.app.state()
	require.NotNil(t, st.Notice)
	assert.Contains(t, st.Notice.Text, "No data available")
	assert.Contains(t, h.app.View(), "No data available")

	h.send(noticeExpiredMsg{seq: h.app.noticeSeq - 1})
	assert.NotNil(t, h.app.state().Notice, "a stale timer does not dismiss")

	h.send(noticeExpiredMsg{seq: h.app.noticeSeq})
	assert.Nil(t, h.app.state().Notice)
}

func TestApp_HelpView(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	h.typeKey("?")
	require.Equal(t, ViewHelp, h.app.view)
	view := h.app.View()
	assert.Contains(t, view, "find in results")
	assert.Contains(t, view, "detect languages")

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewMain, h.app.view)
}

func TestApp_QuitKey(t *testing.T) {
	h := newTestHarness(t, threeArticles)
	h.start(t)

	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
