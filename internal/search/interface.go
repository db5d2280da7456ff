package search

import "github.com/pders01/newsmap/internal/news"

// Searcher finds articles in the current result set.
type Searcher interface {
	// Index replaces the indexed set with the snapshot's articles.
	Index(snap news.Snapshot) error
	Search(query string, limit int) ([]*Result, error)
}

// Result is one hit, scored by the engine.
type Result struct {
	Article news.Article
	Score   float64
	Snippet string
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
