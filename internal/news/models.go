package news

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SeenDateLayout is the fixed-width UTC timestamp GDELT uses for seendate.
const SeenDateLayout = "20060102T150405Z"

// Article is one record of a query result. Records arrive as loose JSON
// objects; the known keys are decoded into fields and every key is kept in
// arrival order so exports reproduce what was received.
type Article struct {
	Title          string
	URL            string
	URLMobile      string
	Domain         string
	Language       string
	SourceCountry  string
	SeenDate       string
	SocialImage    string
	Content        string
	Excerpt        string
	RelevanceScore *float64

	fields []field
}

type field struct {
	key string
	raw json.RawMessage
}

// Known record keys, in the order used when an Article was built in code.
const (
	KeyURL            = "url"
	KeyURLMobile      = "url_mobile"
	KeyTitle          = "title"
	KeySeenDate       = "seendate"
	KeySocialImage    = "socialimage"
	KeyDomain         = "domain"
	KeyLanguage       = "language"
	KeySourceCountry  = "sourcecountry"
	KeyContent        = "content"
	KeyExcerpt        = "excerpt"
	KeyRelevanceScore = "relevance_score"
)

func (a *Article) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding article: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoding article: expected object, got %v", tok)
	}

	*a = Article{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding article key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding article: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding article field %q: %w", key, err)
		}
		a.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding article: %w", err)
	}
	return nil
}

// set records a raw field, replacing an earlier occurrence of the same key.
func (a *Article) set(key string, raw json.RawMessage) {
	for i := range a.fields {
		if a.fields[i].key == key {
			a.fields[i].raw = raw
			a.assign(key, raw)
			return
		}
	}
	a.fields = append(a.fields, field{key: key, raw: raw})
	a.assign(key, raw)
}

func (a *Article) assign(key string, raw json.RawMessage) {
	switch key {
	case KeyTitle:
		a.Title = rawString(raw)
	case KeyURL:
		a.URL = rawString(raw)
	case KeyURLMobile:
		a.URLMobile = rawString(raw)
	case KeyDomain:
		a.Domain = rawString(raw)
	case KeyLanguage:
		a.Language = rawString(raw)
	case KeySourceCountry:
		a.SourceCountry = rawString(raw)
	case KeySeenDate:
		a.SeenDate = rawString(raw)
	case KeySocialImage:
		a.SocialImage = rawString(raw)
	case KeyContent:
		a.Content = rawString(raw)
	case KeyExcerpt:
		a.Excerpt = rawString(raw)
	case KeyRelevanceScore:
		a.RelevanceScore = rawFloat(raw)
	}
}

func (a Article) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a.record() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the record's keys in arrival order.
func (a Article) Keys() []string {
	rec := a.record()
	keys := make([]string, len(rec))
	for i, f := range rec {
		keys[i] = f.key
	}
	return keys
}

// Value returns the stringified value of key and whether the key is present.
// Null values stringify to the empty string.
func (a Article) Value(key string) (string, bool) {
	for _, f := range a.record() {
		if f.key == key {
			return stringify(f.raw), true
		}
	}
	return "", false
}

// record returns the raw key/value list. Articles built in code rather than
// decoded get one synthesized from their non-empty fields.
func (a Article) record() []field {
	if a.fields != nil {
		return a.fields
	}
	var rec []field
	add := func(key, value string) {
		if value == "" {
			return
		}
		raw, _ := json.Marshal(value)
		rec = append(rec, field{key: key, raw: raw})
	}
	add(KeyURL, a.URL)
	add(KeyURLMobile, a.URLMobile)
	add(KeyTitle, a.Title)
	add(KeySeenDate, a.SeenDate)
	add(KeySocialImage, a.SocialImage)
	add(KeyDomain, a.Domain)
	add(KeyLanguage, a.Language)
	add(KeySourceCountry, a.SourceCountry)
	add(KeyContent, a.Content)
	add(KeyExcerpt, a.Excerpt)
	if a.RelevanceScore != nil {
		raw := json.RawMessage(strconv.FormatFloat(*a.RelevanceScore, 'f', -1, 64))
		rec = append(rec, field{key: KeyRelevanceScore, raw: raw})
	}
	return rec
}

// Seen parses SeenDate. The second result is false when it is missing or
// malformed.
func (a Article) Seen() (time.Time, bool) {
	if a.SeenDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(SeenDateLayout, a.SeenDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Score returns the relevance score, treating a missing score as 0.
func (a Article) Score() float64 {
	if a.RelevanceScore == nil {
		return 0
	}
	return *a.RelevanceScore
}

// Body returns the article text shown in detail views.
func (a Article) Body() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Excerpt
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return stringify(raw)
}

func rawFloat(raw json.RawMessage) *float64 {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		n = json.Number(s)
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}

func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// Float returns a pointer to f, for building scored articles.
func Float(f float64) *float64 {
	return &f
}

// Set assigns a JSON-encodable value to key, appending the key when it is
// new and updating the matching field.
func (a *Article) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if a.fields == nil {
		a.fields = a.record()
	}
	a.set(key, raw)
	return nil
}
