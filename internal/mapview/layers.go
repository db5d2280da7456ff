package mapview

import (
	"math"
	"time"

	"github.com/pders01/newsmap/internal/geocode"
	"github.com/pders01/newsmap/internal/news"
)

// Tier is the recency colour of a marker, decided by the newest article.
type Tier int

const (
	TierA Tier = iota // under an hour old
	TierB             // under six hours old
	TierC             // older, or no parseable date
)

// RecencyTier classifies the most recent seendate among articles.
func RecencyTier(articles []news.Article, now time.Time) Tier {
	var newest time.Time
	for _, a := range articles {
		if t, ok := a.Seen(); ok && t.After(newest) {
			newest = t
		}
	}
	if newest.IsZero() {
		return TierC
	}
	switch age := now.Sub(newest); {
	case age < time.Hour:
		return TierA
	case age < 6*time.Hour:
		return TierB
	default:
		return TierC
	}
}

// SizeClass buckets a marker radius or cluster count for glyph choice.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
	SizeHuge
)

// Radius scales a country's count logarithmically against the largest count
// so that one high-volume country does not dwarf the rest.
func Radius(count, maxCount int, minRadius, maxRadius float64) float64 {
	if maxCount <= 0 || count <= 0 {
		return minRadius
	}
	scale := math.Log(float64(count)+1) / math.Log(float64(maxCount)+1)
	return minRadius + (maxRadius-minRadius)*scale
}

// RadiusClass maps a radius within [minRadius,maxRadius] onto four glyph sizes.
func RadiusClass(r, minRadius, maxRadius float64) SizeClass {
	span := maxRadius - minRadius
	if span <= 0 {
		return SizeSmall
	}
	frac := (r - minRadius) / span
	switch {
	case frac < 0.25:
		return SizeSmall
	case frac < 0.5:
		return SizeMedium
	case frac < 0.75:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// ClusterClass buckets a cluster by its child count.
func ClusterClass(n int) SizeClass {
	switch {
	case n < 10:
		return SizeSmall
	case n < 50:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// Marker is one country on the markers layer.
type Marker struct {
	Country string
	Coord   geocode.Coord
	Count   int
	Radius  float64
	Size    SizeClass
	Tier    Tier
}

// Point is one article on the clusters layer.
type Point struct {
	Country string
	Coord   geocode.Coord
}

// HeatPoint deposits Weight (0..1] of density at Coord.
type HeatPoint struct {
	Coord  geocode.Coord
	Weight float64
}

// Layer is one drawn encoding. Mode is what was actually drawn, which can
// differ from the selected mode when a density layer falls back to markers.
type Layer struct {
	Mode    Mode
	Markers []Marker
	Points  []Point
	Heat    []HeatPoint
}

// Empty reports whether the layer draws nothing.
func (l Layer) Empty() bool {
	return len(l.Markers) == 0 && len(l.Points) == 0 && len(l.Heat) == 0
}

// Sizing holds the marker radius bounds.
type Sizing struct {
	MinRadius float64
	MaxRadius float64
}

// BuildMarkers emits one marker per country that has a coordinate, in the
// grouping's first-seen order. maxCount is taken over present countries.
func BuildMarkers(g news.Grouping, table *geocode.Table, sz Sizing, now time.Time) []Marker {
	maxCount := g.MaxCount()
	var out []Marker
	for _, country := range g.Countries() {
		coord, ok := table.Lookup(country)
		if !ok {
			continue
		}
		articles := g.Articles(country)
		r := Radius(len(articles), maxCount, sz.MinRadius, sz.MaxRadius)
		out = append(out, Marker{
			Country: country,
			Coord:   coord,
			Count:   len(articles),
			Radius:  r,
			Size:    RadiusClass(r, sz.MinRadius, sz.MaxRadius),
			Tier:    RecencyTier(articles, now),
		})
	}
	return out
}

// BuildPoints emits one point per article whose country has a coordinate.
func BuildPoints(articles []news.Article, table *geocode.Table) []Point {
	var out []Point
	for _, a := range articles {
		if a.SourceCountry == "" {
			continue
		}
		coord, ok := table.Lookup(a.SourceCountry)
		if !ok {
			continue
		}
		out = append(out, Point{Country: a.SourceCountry, Coord: coord})
	}
	return out
}

// BuildHeat weights each geocoded country by its share of the largest count.
func BuildHeat(g news.Grouping, table *geocode.Table) []HeatPoint {
	maxCount := g.MaxCount()
	if maxCount == 0 {
		return nil
	}
	var out []HeatPoint
	for _, country := range g.Countries() {
		coord, ok := table.Lookup(country)
		if !ok {
			continue
		}
		out = append(out, HeatPoint{Coord: coord, Weight: float64(g.Count(country)) / float64(maxCount)})
	}
	return out
}

// Badge is an aggregated cluster at a projected position.
type Badge struct {
	X, Y      float64
	Count     int
	Size      SizeClass
	Countries []string
}

// Projector maps a coordinate to surface cells; ok is false when the
// coordinate is off screen.
type Projector func(geocode.Coord) (x, y float64, ok bool)

// Aggregate greedily merges projected points into badges: each point joins
// the first badge whose seed lies within radius cells, else it seeds a new
// one. Input order decides seeds, so the result is deterministic.
func Aggregate(points []Point, project Projector, radius float64) []Badge {
	var badges []Badge
	seen := make([]map[string]bool, 0)
	for _, p := range points {
		x, y, ok := project(p.Coord)
		if !ok {
			continue
		}
		joined := false
		for i := range badges {
			dx, dy := badges[i].X-x, badges[i].Y-y
			if math.Hypot(dx, dy) <= radius {
				badges[i].Count++
				if !seen[i][p.Country] {
					seen[i][p.Country] = true
					badges[i].Countries = append(badges[i].Countries, p.Country)
				}
				joined = true
				break
			}
		}
		if !joined {
			badges = append(badges, Badge{X: x, Y: y, Count: 1, Countries: []string{p.Country}})
			seen = append(seen, map[string]bool{p.Country: true})
		}
	}
	for i := range badges {
		badges[i].Size = ClusterClass(badges[i].Count)
	}
	return badges
}
