package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/pders01/newsmap/internal/news"
)

// ShareURL encodes q (and country, when non-empty) as q/timespan/country
// parameters on base. country overrides q.Country so a share from an open
// modal carries the modal's country.
func ShareURL(base string, q news.Query, country string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing share base %q: %w", base, err)
	}
	q = q.Normalize()
	if country == "" {
		country = q.Country
	}
	params := url.Values{}
	params.Set("q", q.Keyword)
	params.Set("timespan", string(q.Timespan))
	if c := strings.TrimSpace(country); c != "" {
		params.Set("country", c)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// ParseDeepLink reads q, timespan and country from a share link. The link
// may be a full URL or just its query string. Invalid timespans fall back to
// the default; missing parameters take their defaults. The second result is
// false when the link carries none of the parameters.
func ParseDeepLink(raw string) (news.Query, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return news.DefaultQuery(), false, nil
	}

	var params url.Values
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		u, err := url.Parse(raw)
		if err != nil {
			return news.DefaultQuery(), false, fmt.Errorf("parsing link: %w", err)
		}
		params = u.Query()
	} else {
		var err error
		params, err = url.ParseQuery(strings.TrimPrefix(raw, "?"))
		if err != nil {
			return news.DefaultQuery(), false, fmt.Errorf("parsing link: %w", err)
		}
	}

	_, hasQ := params["q"]
	_, hasTS := params["timespan"]
	_, hasC := params["country"]

	q := news.Query{
		Keyword:  params.Get("q"),
		Timespan: news.Timespan(params.Get("timespan")),
		Country:  params.Get("country"),
	}.Normalize()
	return q, hasQ || hasTS || hasC, nil
}

// Clipboard copies text to the system clipboard. It is best effort: headless
// sessions without a clipboard return an error the caller may ignore.
var Clipboard = func(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}
