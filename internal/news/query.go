package news

import (
	"errors"
	"fmt"
	"strings"
)

// Timespan is the recency window of a news query.
type Timespan string

const (
	Timespan1h  Timespan = "1h"
	Timespan6h  Timespan = "6h"
	Timespan24h Timespan = "24h"
	Timespan3d  Timespan = "3d"
	Timespan7d  Timespan = "7d"

	DefaultTimespan = Timespan24h
	DefaultKeyword  = "earthquake"
)

// Timespans lists the accepted windows, shortest first.
var Timespans = []Timespan{Timespan1h, Timespan6h, Timespan24h, Timespan3d, Timespan7d}

var ErrInvalidTimespan = errors.New("invalid timespan")

// ParseTimespan accepts exactly one of the enumerated windows.
func ParseTimespan(s string) (Timespan, error) {
	for _, ts := range Timespans {
		if string(ts) == s {
			return ts, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimespan, s)
}

// NormalizeTimespan maps anything that is not a valid window to the default.
func NormalizeTimespan(s string) Timespan {
	ts, err := ParseTimespan(strings.TrimSpace(s))
	if err != nil {
		return DefaultTimespan
	}
	return ts
}

// Next cycles to the following window, wrapping around.
func (t Timespan) Next() Timespan {
	for i, ts := range Timespans {
		if ts == t {
			return Timespans[(i+1)%len(Timespans)]
		}
	}
	return DefaultTimespan
}

// SortBy is the feed ordering.
type SortBy string

const (
	SortByTime      SortBy = "time"
	SortByRelevance SortBy = "relevance"
	SortByCountry   SortBy = "country"
)

var SortOrders = []SortBy{SortByTime, SortByRelevance, SortByCountry}

func ParseSortBy(s string) (SortBy, error) {
	for _, by := range SortOrders {
		if string(by) == s {
			return by, nil
		}
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

// Next cycles to the following sort order, wrapping around.
func (s SortBy) Next() SortBy {
	for i, by := range SortOrders {
		if by == s {
			return SortOrders[(i+1)%len(SortOrders)]
		}
	}
	return SortByTime
}

// Query holds the user's search parameters.
type Query struct {
	Keyword  string
	Timespan Timespan
	Country  string
	SortBy   SortBy
}

func DefaultQuery() Query {
	return Query{
		Keyword:  DefaultKeyword,
		Timespan: DefaultTimespan,
		SortBy:   SortByTime,
	}
}

// Normalize trims free text and replaces invalid or missing values with
// defaults, so a Query is never partially invalid.
func (q Query) Normalize() Query {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Keyword == "" {
		q.Keyword = DefaultKeyword
	}
	q.Timespan = NormalizeTimespan(string(q.Timespan))
	q.Country = strings.TrimSpace(q.Country)
	if _, err := ParseSortBy(string(q.SortBy)); err != nil {
		q.SortBy = SortByTime
	}
	return q
}
