package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	cfgFile  string
	dbPath   string
	endpoint string
	logLevel string
	quiet    bool

	keyword  string
	timespan string
	country  string
	link     string
)

var rootCmd = &cobra.Command{
	Use:   "newsmap",
	Short: "GDELT news on a terminal map",
	Long: `newsmap places recent GDELT articles on a world map by source country,
with a sortable feed, per-country article lists, export and share links.

Run without a subcommand to start the terminal client. Use "newsmap serve"
to run the relay the client fetches from.`,
	SilenceUsage: true,
	RunE:         runClient,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to configuration file")
	pf.StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug (overrides config)")
	pf.StringVar(&endpoint, "endpoint", "", "Relay endpoint URL (overrides config)")

	f := rootCmd.Flags()
	f.StringVar(&dbPath, "db", "", "Path to preferences database (overrides config)")
	f.BoolVar(&quiet, "quiet", false, "Skip startup banner")
	addQueryFlags(f)
	f.StringVar(&link, "link", "", "Open a shared link (full URL or its query string)")

	rootCmd.AddCommand(versionCmd, configCmd, serveCmd, fetchCmd)
	configCmd.AddCommand(configGenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flag
// overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path != "" {
		var err error
		if path, err = validation.NewPermissivePathHandler().GetSecureConfigPath(path); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if endpoint != "" {
		cfg.Client.Endpoint = endpoint
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// initialQuery resolves the first search from --link, then the individual
// query flags, which win over the link.
func initialQuery(cmd *cobra.Command) (news.Query, error) {
	q := news.DefaultQuery()
	if link != "" {
		parsed, ok, err := export.ParseDeepLink(link)
		if err != nil {
			return q, err
		}
		if ok {
			q = parsed
		}
	}

	flags := cmd.Flags()
	if flags.Changed("q") {
		q.Keyword = keyword
	}
	if flags.Changed("timespan") {
		q.Timespan = news.Timespan(timespan)
	}
	if flags.Changed("country") {
		q.Country = country
	}
	return q.Normalize(), nil
}

func setupLogging(cfg *config.Config, path string) {
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}
