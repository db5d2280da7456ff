package news

import (
	"sort"
	"sync"
	"time"
)

// Grouping partitions articles by source country. Articles without a
// country are left out; within a country, arrival order is kept.
type Grouping struct {
	byCountry map[string][]Article
	order     []string
}

func Group(articles []Article) Grouping {
	g := Grouping{byCountry: make(map[string][]Article)}
	for _, a := range articles {
		if a.SourceCountry == "" {
			continue
		}
		if _, ok := g.byCountry[a.SourceCountry]; !ok {
			g.order = append(g.order, a.SourceCountry)
		}
		g.byCountry[a.SourceCountry] = append(g.byCountry[a.SourceCountry], a)
	}
	return g
}

// Articles returns the articles of one country, or nil.
func (g Grouping) Articles(country string) []Article {
	return g.byCountry[country]
}

// Countries lists the countries in first-seen order.
func (g Grouping) Countries() []string {
	return append([]string(nil), g.order...)
}

// SortedCountries lists the countries alphabetically.
func (g Grouping) SortedCountries() []string {
	out := g.Countries()
	sort.Strings(out)
	return out
}

func (g Grouping) Count(country string) int {
	return len(g.byCountry[country])
}

func (g Grouping) Len() int {
	return len(g.order)
}

// MaxCount is the largest per-country count, or 0 when empty.
func (g Grouping) MaxCount() int {
	most := 0
	for _, arts := range g.byCountry {
		if len(arts) > most {
			most = len(arts)
		}
	}
	return most
}

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	Articles  []Article
	Groups    Grouping
	Version   uint64
	UpdatedAt time.Time
}

func (s Snapshot) Empty() bool {
	return len(s.Articles) == 0
}

// Store holds the current result set. It is replaced wholesale, never
// merged, and readers only ever see complete snapshots.
type Store struct {
	mu          sync.RWMutex
	snap        Snapshot
	subscribers []func(Snapshot)
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		snap: Snapshot{Groups: Group(nil)},
		now:  time.Now,
	}
}

// Subscribe registers fn to be called after every replacement.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Replace swaps in a new result set and recomputes the country grouping.
func (s *Store) Replace(articles []Article) Snapshot {
	own := make([]Article, len(articles))
	copy(own, articles)

	s.mu.Lock()
	s.snap = Snapshot{
		Articles:  own,
		Groups:    Group(own),
		Version:   s.snap.Version + 1,
		UpdatedAt: s.now(),
	}
	snap := s.snap
	subs := append([]func(Snapshot){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Clear empties the store; it is a replacement with no articles.
func (s *Store) Clear() Snapshot {
	return s.Replace(nil)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
