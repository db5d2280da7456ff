package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsmap/internal/news"
)

func TestScriptUpstream_PassesArgumentsWithoutShell(t *testing.T) {
	// $0 and $1.. are the appended arguments.
	up, err := NewScriptUpstream([]string{"sh", "-c", `printf '["%s","%s","%s"]' "$0" "$1" "$2"`})
	require.NoError(t, err)

	out, err := up.Fetch(context.Background(), news.Query{Keyword: "a'b; rm -rf /", Timespan: news.Timespan6h, Country: "New Zealand"})
	require.NoError(t, err)
	var args []string
	require.NoError(t, json.Unmarshal(out, &args))
	assert.Equal(t, []string{"a'b; rm -rf /", "6h", "New Zealand"}, args)
}

func TestScriptUpstream_NonZeroExit(t *testing.T) {
	up, err := NewScriptUpstream([]string{"sh", "-c", "echo broken >&2; exit 3"})
	require.NoError(t, err)

	_, err = up.Fetch(context.Background(), news.Query{Keyword: "x", Timespan: news.Timespan24h})
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, 3, scriptErr.Code)
	assert.Equal(t, "broken\n", scriptErr.Stderr)
}

func TestScriptUpstream_Validation(t *testing.T) {
	_, err := NewScriptUpstream(nil)
	assert.Error(t, err)
	_, err = NewScriptUpstream([]string{" "})
	assert.Error(t, err)

	up, err := NewScriptUpstream([]string{"/nonexistent/newsmap-fetch"})
	require.NoError(t, err)
	_, err = up.Fetch(context.Background(), news.Query{Keyword: "x", Timespan: news.Timespan24h})
	require.Error(t, err)
	assert.Equal(t, msgExecFailed, upstreamError(err).Error)
}

func TestRelevance(t *testing.T) {
	tests := []struct {
		name    string
		article news.Article
		keyword string
		want    float64
	}{
		{"phrase in title", news.Article{Title: "Big Earthquake hits"}, "earthquake", 5},
		{"terms in title", news.Article{Title: "Flood warning, heavy rain"}, "rain flood", 4},
		{"title and content", news.Article{Title: "Earthquake", Content: "an earthquake struck"}, "earthquake", 8},
		{"excerpt without content", news.Article{Excerpt: "the earthquake"}, "earthquake", 2},
		{"excerpt terms", news.Article{Excerpt: "solar storm"}, "storm solar flare", 1},
		{"content wins over excerpt", news.Article{Content: "nothing", Excerpt: "earthquake"}, "earthquake", 0},
		{"capped at ten", news.Article{Title: "a b c d e f", Content: "a b c d e f"}, "f e d c b a", 10},
		{"no match", news.Article{Title: "Markets"}, "volcano", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Relevance(tt.article, tt.keyword), 1e-9)
		})
	}
}

func TestRefine_DedupesScoresAndSorts(t *testing.T) {
	in := []news.Article{
		{URL: "1", Title: "Quake in Chile", SeenDate: "20240101T000000Z"},
		{URL: "1", Title: "dup url", SeenDate: "20240109T000000Z"},
		{URL: "2", Title: "Quake in Chile", SeenDate: "20240102T000000Z"},
		{URL: "3", Title: "Markets", SeenDate: "20240105T000000Z"},
		{URL: "4", Title: "Another quake", SeenDate: "20240103T000000Z"},
	}
	out, err := Refine(in, "quake")
	require.NoError(t, err)

	got := make([]string, len(out))
	for i, a := range out {
		got[i] = a.URL
	}
	// Title duplicates keep the first record in arrival order.
	assert.Equal(t, []string{"4", "1", "3"}, got)
	assert.InDelta(t, 5, out[0].Score(), 1e-9)
	assert.InDelta(t, 0, out[2].Score(), 1e-9)
	assert.Contains(t, out[2].Keys(), news.KeyRelevanceScore)
}

func TestDocAPIUpstream(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"articles":[` +
			`{"url":"a","title":"Solar storm","seendate":"20240101T000000Z","sourcecountry":"France","language":null},` +
			`{"url":"b","title":"Storm warning","seendate":"20240102T000000Z","sourcecountry":"Spain"}]}`))
	}))
	defer srv.Close()

	up := NewDocAPIUpstream(srv.URL, 0, time.Second)
	out, err := up.Fetch(context.Background(), news.Query{Keyword: "solar storm", Timespan: news.Timespan3d, Country: "United Kingdom"})
	require.NoError(t, err)

	assert.Equal(t, `"solar storm" sourcecountry:unitedkingdom`, got.Get("query"))
	assert.Equal(t, "artlist", got.Get("mode"))
	assert.Equal(t, "json", got.Get("format"))
	assert.Equal(t, "250", got.Get("maxrecords"))
	assert.Equal(t, "3d", got.Get("timespan"))

	var articles []news.Article
	require.NoError(t, json.Unmarshal(out, &articles))
	require.Len(t, articles, 2)
	assert.Equal(t, "a", articles[0].URL)
	lang, ok := articles[0].Value(news.KeyLanguage)
	assert.True(t, ok)
	assert.Equal(t, "", lang)
	assert.Equal(t, []string{"url", "title", "seendate", "sourcecountry", "language", "relevance_score"}, articles[0].Keys())
}

func TestDocAPIUpstream_EmptyAndErrors(t *testing.T) {
	body := `{}`
	code := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	up := NewDocAPIUpstream(srv.URL, 10, time.Second)
	q := news.Query{Keyword: "x", Timespan: news.Timespan1h}

	out, err := up.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))

	body = "Your search contained a keyword that was too short."
	_, err = up.Fetch(context.Background(), q)
	assert.ErrorContains(t, err, "too short")

	body, code = "nope", http.StatusBadGateway
	_, err = up.Fetch(context.Background(), q)
	assert.ErrorContains(t, err, "502")
}
