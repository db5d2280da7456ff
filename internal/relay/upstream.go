package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/news"
)

// Upstream produces the raw article list for one validated query. An empty
// result is either no bytes at all or a JSON empty array.
type Upstream interface {
	Name() string
	Fetch(ctx context.Context, q news.Query) ([]byte, error)
}

// UpstreamFunc adapts a function to Upstream.
type UpstreamFunc func(ctx context.Context, q news.Query) ([]byte, error)

func (f UpstreamFunc) Name() string { return "func" }

func (f UpstreamFunc) Fetch(ctx context.Context, q news.Query) ([]byte, error) {
	return f(ctx, q)
}

// ScriptError is a non-zero exit of the fetch script.
type ScriptError struct {
	Code   int
	Stderr string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// ScriptUpstream runs an external fetch command with the keyword, timespan
// and optional country appended as separate arguments. No shell is
// involved, so arguments are never reinterpreted.
type ScriptUpstream struct {
	Command []string
}

func NewScriptUpstream(command []string) (*ScriptUpstream, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("script command is empty")
	}
	return &ScriptUpstream{Command: append([]string(nil), command...)}, nil
}

func (s *ScriptUpstream) Name() string { return "script" }

func (s *ScriptUpstream) Fetch(ctx context.Context, q news.Query) ([]byte, error) {
	args := append([]string(nil), s.Command[1:]...)
	args = append(args, q.Keyword, string(q.Timespan))
	if q.Country != "" {
		args = append(args, q.Country)
	}

	cmd := exec.CommandContext(ctx, s.Command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return nil, &ScriptError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
	case err != nil:
		return nil, fmt.Errorf("running %s: %w", s.Command[0], err)
	}
	if stderr.Len() > 0 {
		debuglog.Debugf("script stderr: %s", truncateBytes(stderr.Bytes(), rawOutputLimit))
	}
	return stdout.Bytes(), nil
}

const DefaultDocAPIURL = "https://api.gdeltproject.org/api/v2/doc/doc"

// textKeys are coerced to strings in DocAPIUpstream output.
var textKeys = []string{
	news.KeyTitle, news.KeyURL, news.KeyDomain, news.KeySourceCountry,
	news.KeyLanguage, news.KeyContent, news.KeyExcerpt,
}

// DocAPIUpstream queries the GDELT DOC 2.0 API directly, then cleans and
// scores the list the same way the fetch script does.
type DocAPIUpstream struct {
	Endpoint   string
	MaxRecords int
	HTTPClient *http.Client
	UserAgent  string
}

func NewDocAPIUpstream(endpoint string, maxRecords int, timeout time.Duration) *DocAPIUpstream {
	if endpoint == "" {
		endpoint = DefaultDocAPIURL
	}
	if maxRecords <= 0 {
		maxRecords = 250
	}
	return &DocAPIUpstream{
		Endpoint:   endpoint,
		MaxRecords: maxRecords,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  "newsmap-relay/1.0",
	}
}

func (d *DocAPIUpstream) Name() string { return "docapi" }

// RequestURL builds the artlist query. Multi-word keywords are quoted as a
// phrase and a country becomes a sourcecountry: filter.
func (d *DocAPIUpstream) RequestURL(q news.Query) (string, error) {
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing doc api url: %w", err)
	}
	term := q.Keyword
	if strings.ContainsAny(term, " \t") {
		term = `"` + term + `"`
	}
	if q.Country != "" {
		term += " sourcecountry:" + strings.ToLower(strings.Join(strings.Fields(q.Country), ""))
	}
	params := u.Query()
	params.Set("query", term)
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(d.MaxRecords))
	params.Set("timespan", string(q.Timespan))
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (d *DocAPIUpstream) Fetch(ctx context.Context, q news.Query) ([]byte, error) {
	endpoint, err := d.RequestURL(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)

	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doc api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading doc api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("doc api returned %d: %s", resp.StatusCode, truncateBytes(body, rawOutputLimit))
	}

	// The API answers query errors with plain text and "no results" with {}.
	var payload struct {
		Articles []news.Article `json:"articles"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("doc api: %s", strings.TrimSpace(truncateBytes(body, rawOutputLimit)))
		}
	}

	articles, err := Refine(payload.Articles, q.Keyword)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []news.Article{}
	}
	return json.Marshal(articles)
}

// Refine drops duplicate urls and then duplicate titles, coerces text
// fields to strings, attaches relevance_score and orders by relevance then
// recency.
func Refine(articles []news.Article, keyword string) ([]news.Article, error) {
	out := dedupe(articles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SeenDate > out[j].SeenDate })

	for i := range out {
		for _, key := range textKeys {
			if v, ok := out[i].Value(key); ok {
				if err := out[i].Set(key, v); err != nil {
					return nil, err
				}
			}
		}
		if err := out[i].Set(news.KeyRelevanceScore, Relevance(out[i], keyword)); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if si, sj := out[i].Score(), out[j].Score(); si != sj {
			return si > sj
		}
		return out[i].SeenDate > out[j].SeenDate
	})
	return out, nil
}

func dedupe(articles []news.Article) []news.Article {
	seenURL := make(map[string]bool, len(articles))
	byURL := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if seenURL[a.URL] {
			continue
		}
		seenURL[a.URL] = true
		byURL = append(byURL, a)
	}
	seenTitle := make(map[string]bool, len(byURL))
	out := make([]news.Article, 0, len(byURL))
	for _, a := range byURL {
		if seenTitle[a.Title] {
			continue
		}
		seenTitle[a.Title] = true
		out = append(out, a)
	}
	return out
}

// Relevance scores an article against keyword, capped at 10.
//
// A whole-phrase hit in the title is worth 5, otherwise 2 per matching
// term. The body adds 3 or 1 per term; when there is no content the
// excerpt adds 2 or 0.5 per term.
func Relevance(a news.Article, keyword string) float64 {
	kw := strings.ToLower(keyword)
	terms := strings.Fields(kw)

	score := 0.0
	score += phraseScore(a.Title, kw, terms, 5, 2)
	switch {
	case a.Content != "":
		score += phraseScore(a.Content, kw, terms, 3, 1)
	case a.Excerpt != "":
		score += phraseScore(a.Excerpt, kw, terms, 2, 0.5)
	}
	if score > 10 {
		score = 10
	}
	return score
}

func phraseScore(text, phrase string, terms []string, whole, perTerm float64) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, phrase) {
		return whole
	}
	score := 0.0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += perTerm
		}
	}
	return score
}
