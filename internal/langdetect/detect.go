// Package langdetect guesses the language of article text. The default
// detector matches Unicode script runs; a remote service can sit in front of
// it behind the same interface.
package langdetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/pders01/newsmap/internal/debuglog"
)

// Result is a language code and a confidence in [0,1].
type Result struct {
	Code       string
	Confidence float64
}

// Detector guesses the language of text.
type Detector interface {
	Detect(ctx context.Context, text string) (Result, error)
}

const (
	// ScriptConfidence is reported for every non-trivial script guess.
	ScriptConfidence = 0.7
	minDetectLength  = 10
)

type scriptRule struct {
	code   string
	minRun int
	ranges [][2]rune
}

func (r scriptRule) contains(c rune) bool {
	for _, rg := range r.ranges {
		if c >= rg[0] && c <= rg[1] {
			return true
		}
	}
	return false
}

// Checked in order; the first rule with a long enough run wins. Han is
// claimed by zh before ja, so only kana makes text Japanese.
var scriptRules = []scriptRule{
	{code: "ru", minRun: 4, ranges: [][2]rune{{0x0400, 0x04FF}}},
	{code: "zh", minRun: 2, ranges: [][2]rune{{0x4E00, 0x9FFF}, {0x3400, 0x4DBF}}},
	{code: "ja", minRun: 2, ranges: [][2]rune{{0x3040, 0x309F}, {0x30A0, 0x30FF}, {0x4E00, 0x9FAF}}},
	{code: "ko", minRun: 2, ranges: [][2]rune{{0xAC00, 0xD7AF}, {0x1100, 0x11FF}, {0x3130, 0x318F}}},
	{code: "ar", minRun: 4, ranges: [][2]rune{{0x0600, 0x06FF}, {0x0750, 0x077F}, {0x08A0, 0x08FF}}},
	{code: "he", minRun: 4, ranges: [][2]rune{{0x0590, 0x05FF}, {0xFB1D, 0xFB4F}}},
	{code: "th", minRun: 4, ranges: [][2]rune{{0x0E00, 0x0E7F}}},
	{code: "el", minRun: 4, ranges: [][2]rune{{0x0370, 0x03FF}, {0x1F00, 0x1FFF}}},
}

// ScriptDetector is the offline heuristic.
type ScriptDetector struct {
	Default string
}

func NewScriptDetector(defaultLang string) ScriptDetector {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return ScriptDetector{Default: defaultLang}
}

func (d ScriptDetector) Detect(_ context.Context, text string) (Result, error) {
	def := d.Default
	if def == "" {
		def = "en"
	}
	if utf8.RuneCountInString(text) < minDetectLength || !hasLetter(text) {
		return Result{Code: def, Confidence: 1}, nil
	}
	for _, rule := range scriptRules {
		if longestRun(text, rule) >= rule.minRun {
			return Result{Code: rule.code, Confidence: ScriptConfidence}, nil
		}
	}
	return Result{Code: def, Confidence: ScriptConfidence}, nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func longestRun(s string, rule scriptRule) int {
	best, run := 0, 0
	for _, r := range s {
		if rule.contains(r) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// RemoteDetector calls a LibreTranslate-compatible /detect endpoint.
type RemoteDetector struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewRemoteDetector(url string, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{URL: url, Client: &http.Client{Timeout: timeout}}
}

type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

func (d *RemoteDetector) Detect(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(detectRequest{Q: truncateRunes(text, 1000), APIKey: d.APIKey})
	if err != nil {
		return Result{}, fmt.Errorf("encoding detect request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling detect service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("detect service: HTTP %d", resp.StatusCode)
	}
	var out []detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decoding detect response: %w", err)
	}
	if len(out) == 0 || out[0].Language == "" {
		return Result{}, fmt.Errorf("detect service returned no language")
	}
	conf := out[0].Confidence
	if conf > 1 {
		conf /= 100
	}
	return Result{Code: out[0].Language, Confidence: conf}, nil
}

// Chain asks Primary and falls back to Fallback when it errors.
type Chain struct {
	Primary  Detector
	Fallback Detector
}

func (c Chain) Detect(ctx context.Context, text string) (Result, error) {
	if c.Primary != nil {
		res, err := c.Primary.Detect(ctx, text)
		if err == nil {
			return res, nil
		}
		debuglog.Warnf("langdetect: primary detector failed, using fallback: %v", err)
	}
	return c.Fallback.Detect(ctx, text)
}

// DisplayName returns the English name of a language code, or the code
// itself when it is not recognised.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// sample is the text used to detect an article's language.
func sample(title, body string) string {
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(body))
}
