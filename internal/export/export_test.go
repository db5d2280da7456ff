package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pders01/newsmap/internal/news"
)

func decode(t *testing.T, raw string) []news.Article {
	t.Helper()
	var out []news.Article
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestWriteCSV_RoundTripsCommaAndQuote(t *testing.T) {
	tricky := `Quake hits "north", damage light`
	articles := []news.Article{{URL: "https://a.example/1", Title: tricky}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, articles))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"url", "title"}, records[0])
	assert.Equal(t, tricky, records[1][1])
}

func TestWriteCSV_Quoting(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"two\nlines", "\"two\nlines\""},
		{" leading space", " leading space"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteField(tt.in), tt.in)
	}
}

func TestWriteCSV_HeaderIsUnionOfKeys(t *testing.T) {
	articles := decode(t, `[
		{"url":"u1","title":"t1"},
		{"url":"u2","domain":"d2","title":"t2"},
		{"sourcecountry":"Chile","url":"u3"}
	]`)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, articles))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"url", "title", "domain", "sourcecountry"}, records[0])
	assert.Equal(t, []string{"u1", "t1", "", ""}, records[1])
	assert.Equal(t, []string{"u2", "t2", "d2", ""}, records[2])
	assert.Equal(t, []string{"u3", "", "", "Chile"}, records[3])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, nil), ErrNoData)
	assert.ErrorIs(t, WriteJSON(&buf, nil), ErrNoData)
	assert.ErrorIs(t, WriteXLSX(&buf, nil), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestWriteJSON_PrettyAndOrdered(t *testing.T) {
	articles := decode(t, `[{"title":"t","url":"u","relevance_score":4}]`)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, articles))

	want := "[\n  {\n    \"title\": \"t\",\n    \"url\": \"u\",\n    \"relevance_score\": 4\n  }\n]\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	articles := decode(t, `[{"url":"u1","title":"a, \"b\""},{"url":"u2","domain":"d"}]`)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, articles))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(XLSXSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"url", "title", "domain"}, rows[0])
	assert.Equal(t, []string{"u1", `a, "b"`}, rows[1])
	assert.Equal(t, []string{"u2", "", "d"}, rows[2])
}

func TestFilename(t *testing.T) {
	tests := []struct {
		q    news.Query
		f    Format
		want string
	}{
		{news.Query{Keyword: "earthquake", Timespan: "24h"}, FormatCSV, "gdelt-news-earthquake-24h.csv"},
		{news.Query{Keyword: "forest fire", Timespan: "7d"}, FormatJSON, "gdelt-news-forest-fire-7d.json"},
		{news.Query{Keyword: "../../etc/passwd", Timespan: "bad"}, FormatXLSX, "gdelt-news-etc-passwd-24h.xlsx"},
		{news.Query{Keyword: "???", Timespan: "1h"}, FormatCSV, "gdelt-news-query-1h.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.q, tt.f))
	}
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	q := news.Query{Keyword: "flood", Timespan: news.Timespan6h}

	path, err := SaveFile(dir, q, FormatCSV, []news.Article{{URL: "u"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gdelt-news-flood-6h.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "url\r\nu\r\n", string(data))

	_, err = SaveFile(dir, q, FormatCSV, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSaveFile_RejectsBadDirectory(t *testing.T) {
	q := news.Query{Keyword: "flood", Timespan: news.Timespan6h}
	rows := []news.Article{{URL: "u"}}

	_, err := SaveFile(t.TempDir()+"/a/../b", q, FormatCSV, rows)
	assert.Error(t, err, "traversal in the export dir")

	file := filepath.Join(t.TempDir(), "exports")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = SaveFile(file, q, FormatCSV, rows)
	assert.ErrorContains(t, err, "not a directory")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
