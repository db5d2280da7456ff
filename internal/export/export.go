// Package export serializes a result set to CSV, JSON or XLSX, and builds
// and parses share links.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pders01/newsmap/internal/news"
	"github.com/pders01/newsmap/internal/validation"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data available to export")

// NoDataMessage is the user-facing form of ErrNoData.
const NoDataMessage = "No data available to export."

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or xlsx)", s)
}

// XLSXSheet is the worksheet name used for spreadsheet exports.
const XLSXSheet = "articles"

// Header is the union of every record's keys, in first-seen order. Records
// lacking a key export an empty field for it.
func Header(articles []news.Article) []string {
	seen := make(map[string]bool)
	var header []string
	for _, a := range articles {
		for _, k := range a.Keys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}

func rows(articles []news.Article, header []string) [][]string {
	out := make([][]string, len(articles))
	for i, a := range articles {
		row := make([]string, len(header))
		for j, k := range header {
			row[j], _ = a.Value(k)
		}
		out[i] = row
	}
	return out
}

// WriteCSV writes a header row and one row per article. A field is quoted
// only when it contains a comma, a double quote, CR or LF; embedded quotes
// are doubled. Rows end in CRLF.
func WriteCSV(w io.Writer, articles []news.Article) error {
	if len(articles) == 0 {
		return ErrNoData
	}
	header := Header(articles)
	if err := writeCSVRow(w, header); err != nil {
		return err
	}
	for _, row := range rows(articles, header) {
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteField(f))
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func quoteField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteJSON writes the articles as a two-space indented array, each object
// keeping the keys in the order they were received.
func WriteJSON(w io.Writer, articles []news.Article) error {
	if len(articles) == 0 {
		return ErrNoData
	}
	raw, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("indenting articles: %w", err)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// WriteXLSX writes the same header and rows as WriteCSV to a workbook with
// a single sheet.
func WriteXLSX(w io.Writer, articles []news.Article) error {
	if len(articles) == 0 {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := Header(articles)
	all := append([][]string{header}, rows(articles, header)...)
	for r, row := range all {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(XLSXSheet, cell, v); err != nil {
				return fmt.Errorf("setting %s: %w", cell, err)
			}
		}
	}
	if err := f.SetPanes(XLSXSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format Format, articles []news.Article) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, articles)
	case FormatJSON:
		return WriteJSON(w, articles)
	case FormatXLSX:
		return WriteXLSX(w, articles)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename is gdelt-news-<keyword>-<timespan>.<ext>, with the keyword
// reduced to filesystem-safe characters.
func Filename(q news.Query, format Format) string {
	q = q.Normalize()
	kw := strings.Trim(unsafeName.ReplaceAllString(q.Keyword, "-"), "-.")
	if kw == "" {
		kw = "query"
	}
	return fmt.Sprintf("gdelt-news-%s-%s.%s", kw, q.Timespan, format)
}

// SaveFile writes the export to dir/Filename(q, format), creating dir, and
// returns the path written.
func SaveFile(dir string, q news.Query, format Format, articles []news.Article) (string, error) {
	if len(articles) == 0 {
		return "", ErrNoData
	}
	dir, err := validation.NewPermissivePathHandler().EnsureSecureDirectory(dir)
	if err != nil {
		return "", fmt.Errorf("export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(q, format))

	var buf bytes.Buffer
	if err := Write(&buf, format, articles); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
