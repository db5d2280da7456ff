package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/relay"
)

var (
	serveAddr  string
	serveMode  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the news relay",
	Long: `Run the HTTP relay the client fetches from. In "docapi" mode it queries
the GDELT DOC API directly; in "script" mode it runs the configured fetch
command with the keyword, timespan and optional country as arguments.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Upstream: docapi or script (overrides config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Run gin in debug mode")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Relay.Addr = serveAddr
	}
	if serveMode != "" {
		cfg.Relay.Mode = serveMode
	}

	// The relay logs to stdout at info unless told otherwise.
	if logLevel == "" && debuglog.ParseLogLevel(cfg.Log.Level) == debuglog.LevelOff {
		cfg.Log.Level = debuglog.LevelInfo.String()
	}
	setupLogging(cfg, debuglog.Stdout)
	defer debuglog.Close()

	up, err := newUpstream(cfg.Relay)
	if err != nil {
		return err
	}

	srv := relay.NewServer(relay.Config{
		Addr:            cfg.Relay.Addr,
		Debug:           serveDebug,
		CORSOrigins:     cfg.Relay.CORSOrigins,
		TrustedProxies:  cfg.Relay.TrustedProxies,
		RequestRate:     cfg.Relay.RequestRate,
		RequestBurst:    cfg.Relay.RequestBurst,
		UpstreamTimeout: cfg.Relay.UpstreamTimeout,
	}, up)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

func newUpstream(cfg config.RelayConfig) (relay.Upstream, error) {
	switch cfg.Mode {
	case "docapi", "":
		return relay.NewDocAPIUpstream(cfg.DocAPIURL, cfg.MaxRecords, cfg.UpstreamTimeout), nil
	case "script":
		up, err := relay.NewScriptUpstream(cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("script upstream: %w", err)
		}
		return up, nil
	default:
		return nil, fmt.Errorf("unknown relay mode %q (want docapi or script)", cfg.Mode)
	}
}
