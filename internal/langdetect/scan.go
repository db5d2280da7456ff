package langdetect

import (
	"context"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/pders01/newsmap/internal/news"
)

const (
	minScanLength = 20
	groupKeyRunes = 100
)

// Group is the set of articles detected as one non-default language.
type Group struct {
	Code       string
	Name       string
	Confidence float64
	Articles   []news.Article
}

// Scanner detects the languages present in a result set.
type Scanner struct {
	detector  Detector
	threshold float64
	defLang   string
	limiter   *rate.Limiter
}

// NewScanner paces detections at most one per delay; zero disables pacing.
func NewScanner(d Detector, defaultLang string, threshold float64, delay time.Duration) *Scanner {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Scanner{
		detector:  d,
		threshold: threshold,
		defLang:   defaultLang,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

type textGroup struct {
	text     string
	articles []news.Article
}

// Scan groups articles sharing the same first 100 characters, detects each
// group once, and keeps groups whose language differs from the default with
// confidence at or above the threshold. Results keep first-detected order.
func (s *Scanner) Scan(ctx context.Context, articles []news.Article) ([]Group, error) {
	var order []string
	groups := make(map[string]*textGroup)
	for _, a := range articles {
		text := norm.NFC.String(sample(a.Title, a.Body()))
		if utf8.RuneCountInString(text) < minScanLength {
			continue
		}
		key := truncateRunes(text, groupKeyRunes)
		g, ok := groups[key]
		if !ok {
			g = &textGroup{text: text}
			groups[key] = g
			order = append(order, key)
		}
		g.articles = append(g.articles, a)
	}

	var out []Group
	index := make(map[string]int)
	for _, key := range order {
		if err := s.limiter.Wait(ctx); err != nil {
			return out, err
		}
		g := groups[key]
		res, err := s.detector.Detect(ctx, g.text)
		if err != nil {
			continue
		}
		if res.Confidence < s.threshold || res.Code == s.defLang {
			continue
		}
		i, ok := index[res.Code]
		if !ok {
			i = len(out)
			index[res.Code] = i
			out = append(out, Group{Code: res.Code, Name: DisplayName(res.Code), Confidence: res.Confidence})
		}
		out[i].Articles = append(out[i].Articles, g.articles...)
		if res.Confidence < out[i].Confidence {
			out[i].Confidence = res.Confidence
		}
	}
	return out, nil
}
