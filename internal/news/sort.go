package news

import (
	"sort"
	"strings"
)

// Sort returns a sorted copy of articles; the input is left untouched.
//
// time and relevance are descending, country is ascending. Ties fall back to
// seendate descending. seendate is compared as a string, which matches
// chronological order because the format is fixed-width UTC; a missing date
// compares as "" and sinks to the end.
func Sort(articles []Article, by SortBy) []Article {
	sorted := make([]Article, len(articles))
	copy(sorted, articles)

	var less func(a, b Article) bool
	switch by {
	case SortByRelevance:
		less = func(a, b Article) bool {
			if sa, sb := a.Score(), b.Score(); sa != sb {
				return sa > sb
			}
			return newerFirst(a, b)
		}
	case SortByCountry:
		less = func(a, b Article) bool {
			if c := strings.Compare(a.SourceCountry, b.SourceCountry); c != 0 {
				return c < 0
			}
			return newerFirst(a, b)
		}
	default:
		less = newerFirst
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func newerFirst(a, b Article) bool {
	return a.SeenDate > b.SeenDate
}
