package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/geocode"
	"github.com/pders01/newsmap/internal/langdetect"
	"github.com/pders01/newsmap/internal/mapview"
	"github.com/pders01/newsmap/internal/media"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/search"
	"github.com/pders01/newsmap/internal/storage"
	"github.com/pders01/newsmap/internal/tui"
	"github.com/pders01/newsmap/internal/validation"
)

const remoteDetectTimeout = 5 * time.Second

func addQueryFlags(f *pflag.FlagSet) {
	f.StringVar(&keyword, "q", news.DefaultKeyword, "Search keyword")
	f.StringVar(&timespan, "timespan", string(news.DefaultTimespan), "Timespan: 1h, 6h, 24h, 3d or 7d")
	f.StringVar(&country, "country", "", "Restrict to a source country")
}

func runClient(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// The terminal owns stdout, so the client never logs there.
	logFile := cfg.Log.File
	if logFile == debuglog.Stdout {
		logFile = ""
	}
	setupLogging(cfg, logFile)
	defer debuglog.Close()

	q, err := initialQuery(cmd)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Println(tui.Banner(Version))
	}

	paths := validation.NewPermissivePathHandler()
	prefsPath, err := paths.GetSecureDBPath(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	exportDir, err := paths.GetExportDir(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("invalid export directory: %w", err)
	}

	prefs, err := storage.NewStore(prefsPath)
	if err != nil {
		return err
	}
	defer prefs.Close()

	table, err := geocode.LoadWithOverrides(cfg.Client.Geocode)
	if err != nil {
		return err
	}

	client, err := newGateway(cfg)
	if err != nil {
		return err
	}

	canvas := mapview.NewCanvas(mapview.Camera{
		Center: geocode.Coord{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
		Zoom:   float64(cfg.Map.Zoom),
	}, float64(cfg.Map.ClusterRadius))
	renderer := mapview.NewRenderer(canvas, table, mapview.Options{
		MinRadius: cfg.Map.MinRadius,
		MaxRadius: cfg.Map.MaxRadius,
		FlyZoom:   float64(cfg.Map.FlyZoom),
	})

	searcher, err := search.NewBleveEngine()
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	articles := news.NewStore()
	dispatcher := app.New(app.Deps{
		Fetcher:   client,
		Store:     articles,
		Map:       renderer,
		Prefs:     prefs,
		Scanner:   newScanner(cfg.Lang),
		ExportDir: exportDir,
		ShareBase: cfg.Share.BaseURL,
		Clipboard: export.Clipboard,
	}, q)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg.Export.Dir = exportDir
	model := tui.NewApp(tui.Deps{
		Dispatcher: dispatcher,
		Store:      articles,
		Canvas:     canvas,
		Map:        renderer,
		Searcher:   searcher,
		Launcher:   media.NewLauncher(cfg),
		History:    prefs.RecentQueries,
		Context:    ctx,
	}, cfg)

	debuglog.WithFields(map[string]interface{}{
		"endpoint": cfg.Client.Endpoint,
		"query":    q.Keyword,
		"timespan": string(q.Timespan),
		"country":  q.Country,
	}).Infof("Starting client")

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func newGateway(cfg *config.Config) (*gateway.Client, error) {
	ep, err := validation.NewEndpointValidator().ValidateAndNormalize(cfg.Client.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	return gateway.New(gateway.Options{
		Endpoint:  ep,
		UserAgent: cfg.Client.UserAgent,
		Timeout:   cfg.Client.HTTPTimeout,
	})
}

// newScanner prefers the remote detector when one is configured and falls
// back to script ranges when it fails.
func newScanner(cfg config.LangConfig) *langdetect.Scanner {
	var detector langdetect.Detector = langdetect.NewScriptDetector(cfg.DefaultLanguage)
	if cfg.DetectURL != "" {
		detector = langdetect.Chain{
			Primary:  langdetect.NewRemoteDetector(cfg.DetectURL, remoteDetectTimeout),
			Fallback: detector,
		}
	}
	return langdetect.NewScanner(detector, cfg.DefaultLanguage, cfg.ConfidenceThreshold, cfg.ScanDelay)
}
