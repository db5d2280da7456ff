package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/export"
	"github.com/pders01/newsmap/internal/gateway"
	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/validation"
)

var (
	fetchFormat string
	fetchOut    string
	fetchSort   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one result set from the relay and write it out",
	Long: `Fetch articles from the relay without starting the terminal UI and
write them as csv, json or xlsx to a file or standard output.`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	addQueryFlags(f)
	f.StringVar(&link, "link", "", "Take the query from a shared link")
	f.StringVar(&fetchFormat, "format", "", "Output format: csv, json or xlsx (default: from --out, else a summary)")
	f.StringVarP(&fetchOut, "out", "o", "", "Output file (default standard output)")
	f.StringVar(&fetchSort, "sort", string(news.SortByTime), "Sort order: time, relevance or country")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logFile := cfg.Log.File
	if fetchOut == "" && logFile == debuglog.Stdout {
		logFile = ""
	}
	setupLogging(cfg, logFile)
	defer debuglog.Close()

	format, err := outputFormat(fetchFormat, fetchOut)
	if err != nil {
		return err
	}
	sortBy, err := news.ParseSortBy(fetchSort)
	if err != nil {
		return err
	}
	q, err := initialQuery(cmd)
	if err != nil {
		return err
	}

	client, err := newGateway(cfg)
	if err != nil {
		return err
	}
	out, err := client.Fetch(cmd.Context(), q)
	if err != nil {
		return err
	}

	switch {
	case out.Kind == gateway.KindFailure:
		return fmt.Errorf("fetch failed: %s", out.Message)
	case out.NoResults():
		msg := out.Message
		if msg == "" {
			msg = "no articles found"
		}
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
		return nil
	}

	articles := news.Sort(out.Articles, sortBy)
	if format == "" {
		printSummary(cmd.OutOrStdout(), articles)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if fetchOut != "" {
		path, err := validation.NewPermissiveFilePathValidator().ValidateFile(fetchOut)
		if err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, articles); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d articles\n", len(articles))
	return nil
}

// outputFormat resolves --format, falling back to the --out extension. An
// empty result means print a summary instead of the articles.
func outputFormat(flag, out string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if out == "" {
		return "", nil
	}
	if f, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(out), ".")); err == nil {
		return f, nil
	}
	return export.FormatJSON, nil
}

func printSummary(w io.Writer, articles []news.Article) {
	fmt.Fprintf(w, "%d articles\n", len(articles))
	g := news.Group(articles)
	for _, c := range g.SortedCountries() {
		fmt.Fprintf(w, "  %-24s %d\n", c, g.Count(c))
	}
}
