package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/newsmap/internal/news"
)

const snippetLength = 160

// bleveEngine keeps an in-memory index of the current result set. The set
// is replaced wholesale on every fetch, so the index is rebuilt rather than
// patched.
type bleveEngine struct {
	mu       sync.RWMutex
	idx      bleve.Index
	articles []news.Article
	version  uint64
}

// NewBleveEngine creates an empty in-memory engine.
func NewBleveEngine() (Searcher, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &bleveEngine{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false
	title.IncludeTermVectors = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	content.IncludeTermVectors = false

	country := bleve.NewTextFieldMapping()
	country.Analyzer = standard.Name
	country.Store = false

	domain := bleve.NewTextFieldMapping()
	domain.Analyzer = standard.Name
	domain.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("country", country)
	dm.AddFieldMappingsAt("domain", domain)

	im.DefaultMapping = dm
	return im
}

// Index rebuilds the index from snap. Re-indexing the same version is a no-op.
func (b *bleveEngine) Index(snap news.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if snap.Version != 0 && snap.Version == b.version {
		return nil
	}

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	batch := idx.NewBatch()
	for i, a := range snap.Articles {
		if err := batch.Index(docIDForArticle(i), map[string]any{
			"title":   a.Title,
			"content": a.Body(),
			"country": a.SourceCountry,
			"domain":  a.Domain,
		}); err != nil {
			return fmt.Errorf("indexing article %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}

	if b.idx != nil {
		_ = b.idx.Close()
	}
	b.idx = idx
	b.articles = append([]news.Article(nil), snap.Articles...)
	b.version = snap.Version
	return nil
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	// Tokenize input and build an OR of per-term matches across key fields with boosts
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	add := func(field, tok string, match, prefix float64) {
		qm := bleve.NewMatchQuery(tok)
		qm.SetField(field)
		qm.SetBoost(match)
		qs = append(qs, qm)
		qp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qp.SetField(field)
		qp.SetBoost(prefix)
		qs = append(qs, qp)
	}
	for _, tok := range tokens {
		add("title", tok, 4.0, 3.5)
		add("country", tok, 2.5, 2.0)
		add("content", tok, 1.0, 0.8)
		add("domain", tok, 0.5, 0.3)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	q := bleve.NewDisjunctionQuery(qs...)
	srch := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}
	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, ok := articleIndex(h.ID)
		if !ok || i >= len(b.articles) {
			continue
		}
		a := b.articles[i]
		snippet := findBestSnippet(a.Body(), tokens, snippetLength)
		if snippet == "" {
			snippet = truncate(a.Title, snippetLength)
		}
		out = append(out, &Result{Article: a, Score: h.Score, Snippet: snippet})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.idx.DocCount()
	return int(n), err
}

func docIDForArticle(i int) string { return "article:" + strconv.Itoa(i) }

func articleIndex(id string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "article:"))
	return n, err == nil
}
