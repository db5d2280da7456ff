package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/news"
)

const (
	panStepX = 4
	panStepY = 2
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, keys: cfg.Keys.Bindings, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		kh.cancelScan()
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	switch kh.app.view {
	case ViewReader:
		return kh.handleReaderKeys(msg)
	case ViewFind:
		return kh.handleFindListKeys(msg)
	case ViewShare:
		return kh.handleShareKeys(key)
	case ViewExport:
		return kh.handleExportKeys(key)
	case ViewLanguages:
		return kh.handleLanguagesKeys(key)
	case ViewHelp:
		return kh.handleHelpKeys(key)
	}

	st := kh.app.state()
	if st.WelcomeOpen {
		return kh.handleWelcomeKeys(key)
	}
	if model, cmd, handled := kh.handleGlobalKeys(key, st); handled {
		return model, cmd
	}
	if st.Modal != nil {
		return kh.handleModalKeys(key, st)
	}
	if kh.app.focus == PanelMap {
		return kh.handleMapKeys(key)
	}
	return kh.handleFeedKeys(key, st)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return true
	case ViewFind:
		return kh.app.findInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		if kh.app.view == ViewSearch {
			return kh.app, kh.focusSearchField(kh.app.searchFocus + 1)
		}
		if len(kh.app.findList.Items()) > 0 {
			kh.app.findInput.Blur()
			kh.app.findList.Select(0)
		}
		return kh.app, nil
	case "shift+tab", "up":
		if kh.app.view == ViewSearch {
			return kh.app, kh.focusSearchField(kh.app.searchFocus - 1)
		}
		return kh.app, nil
	case "ctrl+r":
		if kh.app.view == ViewSearch {
			kh.recallRecent()
			return kh.app, nil
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		keyword := sanitizeSearchInput(a.searchInputs[searchKeyword].Value())
		timespan := news.NormalizeTimespan(strings.TrimSpace(a.searchInputs[searchTimespan].Value()))
		country := strings.TrimSpace(a.searchInputs[searchCountry].Value())
		a.view = ViewMain
		a.feedIndex = 0
		return a, a.dispatch(app.SubmitSearch{Keyword: keyword, Timespan: timespan, Country: country})

	case ViewFind:
		if items := a.findList.Items(); len(items) > 0 {
			if item, ok := items[0].(findResultItem); ok {
				return a, a.openReader(item.article())
			}
		}
		return a, nil

	default:
		return a, nil
	}
}

// delegateToTextInput passes the key to the focused text input
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		in, cmd := a.searchInputs[a.searchFocus].Update(msg)
		a.searchInputs[a.searchFocus] = in
		return a, cmd

	case ViewFind:
		prev := a.findInput.Value()
		in, cmd := a.findInput.Update(msg)
		a.findInput = in

		if a.findInput.Value() != prev {
			a.findSeq++
			seq := a.findSeq
			return a, tea.Batch(cmd, tea.Tick(a.findDebounce, func(time.Time) tea.Msg {
				return findDebounceFireMsg{seq: seq}
			}))
		}
		return a, cmd

	default:
		return a, nil
	}
}

func (kh *KeyHandler) focusSearchField(i int) tea.Cmd {
	a := kh.app
	n := len(a.searchInputs)
	i = ((i % n) + n) % n
	for j := range a.searchInputs {
		a.searchInputs[j].Blur()
	}
	a.searchFocus = i
	return a.searchInputs[i].Focus()
}

// recallRecent cycles the form through the most recent queries.
func (kh *KeyHandler) recallRecent() {
	a := kh.app
	if len(a.recent) == 0 {
		return
	}
	a.recentIndex = (a.recentIndex + 1) % len(a.recent)
	h := a.recent[a.recentIndex]
	a.searchInputs[searchKeyword].SetValue(h.Keyword)
	a.searchInputs[searchTimespan].SetValue(h.Timespan)
	a.searchInputs[searchCountry].SetValue(h.Country)
}

// handleGlobalKeys handles action keys that work on the main view whether
// the map, the feed or a modal has focus.
func (kh *KeyHandler) handleGlobalKeys(key string, st app.State) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case kh.keys.Quit:
		kh.cancelScan()
		return a, tea.Quit, true
	case kh.keys.Search, kh.modifierKey + kh.keys.Search:
		return a, kh.enterSearchMode(st), true
	case kh.keys.Find, kh.modifierKey + kh.keys.Find:
		return a, kh.enterFindMode(), true
	case kh.keys.Refresh:
		if st.FeedError != "" {
			return a, a.dispatch(app.Retry{}), true
		}
		return a, a.dispatch(app.Refresh{}), true
	case kh.keys.Timespan:
		return a, a.dispatch(app.SetTimespan{Timespan: st.Query.Timespan.Next()}), true
	case kh.keys.Sort:
		return a, a.dispatch(app.SetSort{SortBy: st.Query.SortBy.Next()}), true
	case kh.keys.Clusters:
		return a, a.dispatch(app.ToggleVisualization{Mode: mapview.ModeClusters}), true
	case kh.keys.Heatmap:
		return a, a.dispatch(app.ToggleVisualization{Mode: mapview.ModeHeatmap}), true
	case kh.keys.Share:
		cmd := a.dispatch(app.Share{})
		if a.state().LastShareURL != "" {
			a.view = ViewShare
		}
		return a, cmd, true
	case kh.keys.Export:
		a.view = ViewExport
		return a, nil, true
	case kh.keys.Theme:
		return a, a.dispatch(app.ToggleTheme{}), true
	case kh.keys.ToggleFeed:
		cmd := a.dispatch(app.ToggleFeed{})
		if a.state().FeedCollapsed {
			a.focus = PanelMap
		}
		return a, cmd, true
	case kh.keys.Languages:
		return a, a.dispatch(app.ScanLanguages{}), true
	case kh.keys.ResetView:
		return a, a.dispatch(app.ResetView{}), true
	case kh.keys.Help:
		a.view = ViewHelp
		return a, nil, true
	case "w":
		return a, a.dispatch(app.ShowWelcome{}), true
	case "p":
		if st.Modal == nil && !st.FeedCollapsed {
			if a.focus == PanelMap {
				a.focus = PanelFeed
			} else {
				a.focus = PanelMap
			}
		}
		return a, nil, true
	case kh.keys.Back:
		if st.Modal != nil {
			a.modalIndex = 0
			return a, a.dispatch(app.CloseModal{}), true
		}
		if st.Scanning {
			kh.cancelScan()
			return a, nil, true
		}
		return a, a.dispatch(app.DismissNotice{}), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleFeedKeys(key string, st app.State) (tea.Model, tea.Cmd) {
	a := kh.app
	articles, total := a.feedArticles(st)

	switch key {
	case "up", "k":
		if a.feedIndex > 0 {
			a.feedIndex--
		}
	case "down", "j":
		if a.feedIndex < len(articles)-1 {
			a.feedIndex++
		}
	case "left", "[", "pgup":
		return a, kh.setFeedPage(st.FeedPage-1, total)
	case "right", "]", "pgdown":
		return a, kh.setFeedPage(st.FeedPage+1, total)
	case kh.keys.OpenBrowser:
		if art, ok := selected(articles, a.feedIndex); ok {
			return a, a.openURL(art.URL)
		}
	case " ":
		if art, ok := selected(articles, a.feedIndex); ok {
			return a, a.openReader(art)
		}
	case "v":
		if art, ok := selected(articles, a.feedIndex); ok {
			a.modalIndex = 0
			return a, a.dispatch(app.OpenCountry{Country: art.SourceCountry})
		}
	}
	return a, nil
}

func (kh *KeyHandler) setFeedPage(page, total int) tea.Cmd {
	if page < 1 || page > total {
		return nil
	}
	kh.app.feedIndex = 0
	return kh.app.dispatch(app.SetFeedPage{Page: page})
}

func (kh *KeyHandler) handleModalKeys(key string, st app.State) (tea.Model, tea.Cmd) {
	a := kh.app
	articles, total := a.modalArticles(st)

	switch key {
	case "up", "k":
		if a.modalIndex > 0 {
			a.modalIndex--
		}
	case "down", "j":
		if a.modalIndex < len(articles)-1 {
			a.modalIndex++
		}
	case "left", "[", "pgup":
		if st.Modal.Page > 1 {
			a.modalIndex = 0
			return a, a.dispatch(app.SetModalPage{Page: st.Modal.Page - 1})
		}
	case "right", "]", "pgdown":
		if st.Modal.Page < total {
			a.modalIndex = 0
			return a, a.dispatch(app.SetModalPage{Page: st.Modal.Page + 1})
		}
	case kh.keys.OpenBrowser:
		if art, ok := selected(articles, a.modalIndex); ok {
			return a, a.openURL(art.URL)
		}
	case " ":
		if art, ok := selected(articles, a.modalIndex); ok {
			return a, a.openReader(art)
		}
	}
	return a, nil
}

func (kh *KeyHandler) handleMapKeys(key string) (tea.Model, tea.Cmd) {
	a := kh.app
	canvas := a.deps.Canvas

	switch key {
	case "left":
		canvas.Pan(-panStepX, 0)
	case "right":
		canvas.Pan(panStepX, 0)
	case "up":
		canvas.Pan(0, -panStepY)
	case "down":
		canvas.Pan(0, panStepY)
	case "+", "=":
		canvas.ZoomBy(1)
	case "-":
		canvas.ZoomBy(-1)
	case "tab":
		kh.cycleMarker(1)
	case "shift+tab":
		kh.cycleMarker(-1)
	case kh.keys.OpenBrowser:
		if a.marked != "" {
			a.modalIndex = 0
			return a, a.dispatch(app.OpenCountry{Country: a.marked})
		}
	}
	return a, nil
}

// cycleMarker moves the highlight through the drawn countries.
func (kh *KeyHandler) cycleMarker(step int) {
	a := kh.app
	targets := a.deps.Map.Targets()
	if len(targets) == 0 {
		a.markerIndex = -1
		a.marked = ""
		return
	}
	n := len(targets)
	switch {
	case a.markerIndex < 0 && step < 0:
		a.markerIndex = n - 1
	case a.markerIndex < 0:
		a.markerIndex = 0
	default:
		a.markerIndex = ((a.markerIndex+step)%n + n) % n
	}
	a.marked = targets[a.markerIndex]
}

func (kh *KeyHandler) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case kh.keys.Back, "q":
		return kh.navigateBack()
	case kh.keys.OpenBrowser:
		if a.currentArticle != nil {
			return a, a.openURL(a.currentArticle.URL)
		}
		return a, nil
	case "i":
		if a.currentArticle != nil && a.currentArticle.SocialImage != "" {
			return a, a.openURL(a.currentArticle.SocialImage)
		}
		return a, nil
	}
	vp, cmd := a.viewport.Update(msg)
	a.viewport = vp
	return a, cmd
}

func (kh *KeyHandler) handleFindListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case kh.keys.Back:
		return kh.navigateBack()
	case "/", "shift+tab":
		return a, a.findInput.Focus()
	case "enter", " ":
		if item, ok := a.findList.SelectedItem().(findResultItem); ok {
			return a, a.openReader(item.article())
		}
		return a, nil
	case "v":
		if item, ok := a.findList.SelectedItem().(findResultItem); ok {
			a.view = ViewMain
			a.modalIndex = 0
			return a, a.dispatch(app.OpenCountry{Country: item.article().SourceCountry})
		}
		return a, nil
	}
	l, cmd := a.findList.Update(msg)
	a.findList = l
	return a, cmd
}

func (kh *KeyHandler) handleShareKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter", kh.keys.Back, "q":
		kh.app.view = ViewMain
	}
	return kh.app, nil
}

func (kh *KeyHandler) handleExportKeys(key string) (tea.Model, tea.Cmd) {
	a := kh.app
	var format export.Format
	switch key {
	case "c", "enter":
		format = export.FormatCSV
	case "j":
		format = export.FormatJSON
	case "x":
		format = export.FormatXLSX
	case kh.keys.Back, "q":
		a.view = ViewMain
		return a, nil
	default:
		return a, nil
	}
	a.view = ViewMain
	return a, a.dispatch(app.Export{Format: format})
}

func (kh *KeyHandler) handleLanguagesKeys(key string) (tea.Model, tea.Cmd) {
	a := kh.app
	switch key {
	case "up", "k":
		if a.langOffset > 0 {
			a.langOffset--
		}
	case "down", "j":
		a.langOffset++
	case kh.keys.Back, "q", "enter":
		a.view = ViewMain
	}
	return a, nil
}

func (kh *KeyHandler) handleHelpKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case kh.keys.Back, kh.keys.Help, "q":
		kh.app.view = ViewMain
	}
	return kh.app, nil
}

func (kh *KeyHandler) handleWelcomeKeys(key string) (tea.Model, tea.Cmd) {
	a := kh.app
	switch key {
	case "enter", kh.keys.Back, " ":
		return a, a.dispatch(app.DismissWelcome{})
	case "x":
		return a, a.dispatch(app.DismissWelcome{DontShowAgain: true})
	case kh.keys.Quit:
		return a, tea.Quit
	}
	return a, nil
}

func (kh *KeyHandler) enterSearchMode(st app.State) tea.Cmd {
	a := kh.app
	a.previousView = a.view
	a.view = ViewSearch
	a.searchInputs[searchKeyword].SetValue(st.Query.Keyword)
	a.searchInputs[searchTimespan].SetValue(string(st.Query.Timespan))
	a.searchInputs[searchCountry].SetValue(st.Query.Country)
	for i := range a.searchInputs {
		a.searchInputs[i].CursorEnd()
	}
	a.loadRecent()
	return kh.focusSearchField(searchKeyword)
}

func (kh *KeyHandler) enterFindMode() tea.Cmd {
	a := kh.app
	a.previousView = a.view
	a.view = ViewFind
	a.findInput.Reset()
	a.findList.SetItems(nil)
	return a.findInput.Focus()
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewReader:
		a.view = a.previousView
		if a.view == ViewReader {
			a.view = ViewMain
		}
		a.currentArticle = nil
		a.loadingArticle = false
		if a.view == ViewFind {
			a.findInput.Blur()
		}
	case ViewSearch:
		for i := range a.searchInputs {
			a.searchInputs[i].Blur()
		}
		a.view = ViewMain
	case ViewFind:
		a.findInput.Blur()
		a.view = ViewMain
	default:
		a.view = ViewMain
	}
	return a, nil
}

func (kh *KeyHandler) cancelScan() {
	if kh.app.cancelScan != nil {
		kh.app.cancelScan()
	}
}

func selected(articles []news.Article, i int) (news.Article, bool) {
	if i < 0 || i >= len(articles) {
		return news.Article{}, false
	}
	return articles[i], true
}

// sanitizeSearchInput drops control characters and collapses whitespace.
func sanitizeSearchInput(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return ' '
		}
		return r
	}, input)
	return strings.Join(strings.Fields(cleaned), " ")
}

// GetHelpForCurrentView returns the short key hints for the status bar
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.keys
	switch kh.app.view {
	case ViewReader:
		return []string{b.OpenBrowser + ": open", "i: image", b.Back + ": back"}
	case ViewSearch:
		return []string{"tab: next field", "enter: search", b.Back + ": cancel"}
	case ViewFind:
		return []string{"enter: read", "v: view on map", b.Back + ": back"}
	case ViewShare, ViewLanguages, ViewHelp:
		return []string{b.Back + ": close"}
	case ViewExport:
		return []string{"c: csv", "j: json", "x: xlsx", b.Back + ": cancel"}
	}

	st := kh.app.state()
	switch {
	case st.WelcomeOpen:
		return []string{"enter: start", "x: don't show again"}
	case st.Modal != nil:
		return []string{"←/→: page", b.OpenBrowser + ": open", b.Share + ": share", b.Export + ": export", b.Back + ": close"}
	case kh.app.focus == PanelMap:
		return []string{"arrows: pan", "+/-: zoom", "tab: marker", b.OpenBrowser + ": country", b.Clusters + "/" + b.Heatmap + ": mode", "p: feed", b.Help + ": help"}
	default:
		return []string{b.Search + ": search", b.Timespan + ": timespan", b.Sort + ": sort", "←/→: page", "v: on map", "p: map", b.Help + ": help"}
	}
}

// fullHelp lists every binding as key/description pairs.
func (kh *KeyHandler) fullHelp() [][2]string {
	b := kh.keys
	return [][2]string{
		{b.Search, "search news"},
		{b.Find, "find in results"},
		{b.Refresh, "refresh / retry"},
		{b.Timespan, "next timespan"},
		{b.Sort, "next sort order"},
		{b.Clusters, "toggle clusters"},
		{b.Heatmap, "toggle heatmap"},
		{b.Share, "share link"},
		{b.Export, "export csv/json/xlsx"},
		{b.Theme, "dark / light"},
		{b.ToggleFeed, "collapse feed"},
		{b.Languages, "detect languages"},
		{b.ResetView, "reset map view"},
		{"p", "switch map / feed"},
		{"←/→", "page (feed) / pan (map)"},
		{"tab", "next marker"},
		{"space", "read article"},
		{"v", "view article's country"},
		{b.OpenBrowser, "open in browser / country"},
		{"w", "welcome screen"},
		{b.Back, "close / back"},
		{b.Quit, "quit"},
	}
}
