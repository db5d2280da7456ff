package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/media"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/search"
	"github.com/pders01/newsmap/internal/storage"
)

// Deps are the collaborators the UI drives. Searcher, Launcher and History
// are optional.
type Deps struct {
	Dispatcher *app.Dispatcher
	Store      *news.Store
	Canvas     *mapview.Canvas
	Map        *mapview.Renderer
	Searcher   search.Searcher
	Launcher   *media.Launcher
	History    func(n int) ([]storage.HistoryEntry, error)
	Context    context.Context
	Now        func() time.Time
}

const (
	searchKeyword = iota
	searchTimespan
	searchCountry
)

const recentQueries = 5

type App struct {
	config     *config.Config
	deps       Deps
	ctx        context.Context
	now        func() time.Time
	keyHandler *KeyHandler
	dark       Theme
	light      Theme

	view         View
	previousView View
	focus        Panel
	feedIndex    int
	modalIndex   int
	markerIndex  int
	marked       string
	langOffset   int

	searchInputs []textinput.Model
	searchFocus  int
	recent       []storage.HistoryEntry
	recentIndex  int

	findInput    textinput.Model
	findList     list.Model
	findSeq      int
	findDebounce time.Duration

	viewport        viewport.Model
	spinner         spinner.Model
	help            help.Model
	currentArticle  *news.Article
	loadingArticle  bool
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	rendererStyle   string

	cancelScan context.CancelFunc
	noticeSeq  int
	noticeTTL  time.Duration
	width      int
	height     int
	err        error
}

func NewApp(deps Deps, cfg *config.Config) *App {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	keyword := textinput.New()
	keyword.Placeholder = news.DefaultKeyword
	keyword.Prompt = "keyword  › "
	keyword.CharLimit = 200

	timespan := textinput.New()
	timespan.Placeholder = "1h 6h 24h 3d 7d"
	timespan.Prompt = "timespan › "
	timespan.CharLimit = 4

	country := textinput.New()
	country.Placeholder = "all countries"
	country.Prompt = "country  › "
	country.CharLimit = 60

	fi := textinput.New()
	fi.Placeholder = "Find in current results..."

	findList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	findList.Title = "› find"
	findList.SetShowStatusBar(false)
	findList.SetShowHelp(false)
	findList.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Globe

	a := &App{
		config:       cfg,
		deps:         deps,
		ctx:          deps.Context,
		now:          deps.Now,
		dark:         NewTheme(cfg.UI.Dark, "dark"),
		light:        NewTheme(cfg.UI.Light, "light"),
		view:         ViewMain,
		previousView: ViewMain,
		focus:        PanelFeed,
		markerIndex:  -1,
		searchInputs: []textinput.Model{keyword, timespan, country},
		findInput:    fi,
		findList:     findList,
		findDebounce: 150 * time.Millisecond,
		noticeTTL:    noticeTTL,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         help.New(),
	}
	a.keyHandler = NewKeyHandler(a, cfg)

	if deps.Searcher != nil {
		deps.Store.Subscribe(func(snap news.Snapshot) {
			if err := deps.Searcher.Index(snap); err != nil {
				debuglog.Warnf("tui: indexing results: %v", err)
			}
		})
	}
	return a
}

func (a *App) state() app.State {
	return a.deps.Dispatcher.State()
}

func (a *App) theme() Theme {
	if a.state().Dark {
		return a.dark
	}
	return a.light
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	if minWidth <= 0 {
		minWidth = 40
	}

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	style := a.theme().glamour
	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 || a.rendererStyle != style {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
		a.rendererStyle = style
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.run(a.deps.Dispatcher.Start()),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()

	case tea.KeyMsg:
		a.err = nil
		return a.keyHandler.HandleKey(msg)

	case fetchSettledMsg:
		cmd := a.dispatch(app.FetchSettled{Outcome: msg.outcome})
		a.feedIndex = 0
		a.markerIndex = -1
		a.marked = ""
		return a, cmd

	case scanSettledMsg:
		a.cancelScan = nil
		cmd := a.dispatch(app.ScanSettled{Groups: msg.groups, Err: msg.err})
		if len(a.state().Languages) > 0 && a.view == ViewMain {
			a.view = ViewLanguages
			a.langOffset = 0
		}
		return a, cmd

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case findDebounceFireMsg:
		if msg.seq == a.findSeq && a.view == ViewFind {
			return a, a.performFind(a.findInput.Value())
		}

	case findResultsMsg:
		if a.view == ViewFind && msg.query == a.findInput.Value() {
			if msg.err != nil {
				a.err = msg.err
				break
			}
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = findResultItem{result: r}
			}
			a.findList.SetItems(items)
		}

	case noticeExpiredMsg:
		if msg.seq == a.noticeSeq && a.state().Notice != nil {
			a.deps.Dispatcher.Dispatch(app.DismissNotice{})
		}

	case spinner.TickMsg:
		if a.busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}

	case errorMsg:
		a.err = msg.err
	}

	if a.view == ViewReader {
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// dispatch runs an action through the dispatcher and turns its result into
// commands. A changed notice arms its expiry timer.
func (a *App) dispatch(act app.Action) tea.Cmd {
	before := a.state().Notice
	res := a.deps.Dispatcher.Dispatch(act)
	a.layout()

	cmds := []tea.Cmd{a.run(res)}
	if after := a.state().Notice; after != nil && (before == nil || *before != *after) {
		a.noticeSeq++
		seq := a.noticeSeq
		cmds = append(cmds, tea.Tick(a.noticeTTL, func(time.Time) tea.Msg {
			return noticeExpiredMsg{seq: seq}
		}))
	}
	return tea.Batch(cmds...)
}

func (a *App) busy() bool {
	st := a.state()
	return st.Loading || st.Scanning
}

// layout sizes the canvas, viewport and lists for the current window.
func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	bodyHeight := a.height - 1

	mapWidth := a.mapWidth()
	// Panel border plus the two header lines.
	a.deps.Canvas.SetSize(mapWidth-2, bodyHeight-4)

	a.viewport.Width = a.width
	a.viewport.Height = bodyHeight

	listHeight := bodyHeight - 6
	if listHeight < 5 {
		listHeight = 5
	}
	a.findList.SetSize(a.width, listHeight)

	inputWidth := a.width - 20
	if inputWidth < 20 {
		inputWidth = a.width
	}
	for i := range a.searchInputs {
		a.searchInputs[i].Width = inputWidth
	}
	a.findInput.Width = inputWidth
}

func (a *App) mapWidth() int {
	if a.state().FeedCollapsed || a.width < 60 {
		return a.width
	}
	return (a.width * 3) / 5
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}
	th := a.theme()
	st := a.state()
	bodyHeight := a.height - 1

	var content string
	switch a.view {
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, bodyHeight, th.MutedText.Render(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSearch:
		content = a.renderSearchForm(th, bodyHeight)
	case ViewFind:
		content = a.renderFind(th, bodyHeight)
	case ViewShare:
		content = a.renderShare(th, st, bodyHeight)
	case ViewExport:
		content = a.renderExport(th, st, bodyHeight)
	case ViewLanguages:
		content = a.renderLanguages(th, st, bodyHeight)
	case ViewHelp:
		content = a.renderHelp(th, bodyHeight)
	default:
		if st.WelcomeOpen {
			content = a.renderWelcome(th, bodyHeight)
		} else {
			content = a.renderMain(th, st, bodyHeight)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar(th, st))
}

// renderMain lays the map and the feed (or the open modal) side by side.
func (a *App) renderMain(th Theme, st app.State, height int) string {
	mapWidth := a.mapWidth()
	mapPanel := a.renderMap(th, st, mapWidth, height, a.focus == PanelMap && st.Modal == nil)
	if mapWidth >= a.width {
		if st.Modal != nil {
			return a.renderModal(th, st, a.width, height)
		}
		return mapPanel
	}

	sideWidth := a.width - mapWidth
	var side string
	if st.Modal != nil {
		side = a.renderModal(th, st, sideWidth, height)
	} else {
		side = a.renderFeed(th, st, sideWidth, height, a.focus == PanelFeed)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, side)
}

func (a *App) statusBar(th Theme, st app.State) string {
	var left string
	switch {
	case a.err != nil:
		left = th.StatusStyle(StatusError).Render(a.err.Error())
	case st.Notice != nil:
		left = th.StatusStyle(statusKind(st.Notice.Kind)).Render(st.Notice.Text)
	default:
		left = th.shortHelp(a.help, a.keyHandler.GetHelpForCurrentView())
	}

	right := th.Logo.Render(CompactLogo)
	switch {
	case st.Loading:
		right = a.spinner.View() + " " + th.MutedText.Render(MsgLoading) + "  " + right
	case st.Scanning:
		right = a.spinner.View() + " " + th.MutedText.Render(MsgScanning) + "  " + right
	}

	space := a.width - lipgloss.Width(right) - 2
	if space < 0 {
		space = 0
	}
	left = lipgloss.NewStyle().MaxWidth(space).Render(left)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(left + strings.Repeat(" ", gap) + right)
}
