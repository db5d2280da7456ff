package mapview

import (
	"time"

	"github.com/pders01/newsmap/internal/geocode"
	"github.com/pders01/newsmap/internal/news"
)

// Surface is what the renderer needs from a map: a layer set it owns
// exclusively, and a camera.
type Surface interface {
	Clear()
	AddLayer(Layer)
	Layers() []Layer
	FlyTo(c geocode.Coord, zoom float64)
	ResetView()
}

// DensityHost is implemented by surfaces that can draw a density layer.
// Surfaces that do not implement it, or report false, get markers instead.
type DensityHost interface {
	CanHostDensity() bool
}

// DensityUnavailable is surfaced once when the heatmap falls back.
const DensityUnavailable = "Density view is unavailable here; showing markers instead."

// Options tunes marker sizing and the camera.
type Options struct {
	MinRadius float64
	MaxRadius float64
	FlyZoom   float64
}

func DefaultOptions() Options {
	return Options{MinRadius: 5, MaxRadius: 25, FlyZoom: 5}
}

// Renderer owns the surface's layer set and the visualization mode.
type Renderer struct {
	surface Surface
	table   *geocode.Table
	opts    Options
	mode    Mode
	now     func() time.Time

	snap            news.Snapshot
	fallbackNoticed bool
}

func NewRenderer(surface Surface, table *geocode.Table, opts Options) *Renderer {
	if opts.MaxRadius <= opts.MinRadius {
		d := DefaultOptions()
		opts.MinRadius, opts.MaxRadius = d.MinRadius, d.MaxRadius
	}
	if opts.FlyZoom <= 0 {
		opts.FlyZoom = DefaultOptions().FlyZoom
	}
	return &Renderer{surface: surface, table: table, opts: opts, now: time.Now}
}

func (r *Renderer) Mode() Mode {
	return r.mode
}

// SetClock replaces the time source used for recency tiers.
func (r *Renderer) SetClock(now func() time.Time) {
	r.now = now
}

// Toggle switches to target (or back to markers if target is already
// active) and redraws. The returned notice is non-empty at most once per
// renderer, the first time the density layer falls back.
func (r *Renderer) Toggle(target Mode) string {
	r.mode = r.mode.Toggle(target)
	return r.redraw()
}

// Draw redraws the current mode from snap.
func (r *Renderer) Draw(snap news.Snapshot) string {
	r.snap = snap
	return r.redraw()
}

// Clear empties the map for a no-results state. The surface keeps a single
// empty layer of the current mode.
func (r *Renderer) Clear() {
	r.snap = news.Snapshot{Groups: news.Group(nil)}
	r.surface.Clear()
	r.surface.AddLayer(Layer{Mode: r.drawnMode()})
}

func (r *Renderer) redraw() string {
	r.surface.Clear()

	layer := Layer{Mode: r.drawnMode()}
	notice := ""
	if r.mode == ModeHeatmap && layer.Mode == ModeMarkers && !r.fallbackNoticed {
		r.fallbackNoticed = true
		notice = DensityUnavailable
	}

	sz := Sizing{MinRadius: r.opts.MinRadius, MaxRadius: r.opts.MaxRadius}
	switch layer.Mode {
	case ModeClusters:
		layer.Points = BuildPoints(r.snap.Articles, r.table)
	case ModeHeatmap:
		layer.Heat = BuildHeat(r.snap.Groups, r.table)
	default:
		layer.Markers = BuildMarkers(r.snap.Groups, r.table, sz, r.now())
	}
	r.surface.AddLayer(layer)
	return notice
}

func (r *Renderer) drawnMode() Mode {
	if r.mode != ModeHeatmap {
		return r.mode
	}
	if host, ok := r.surface.(DensityHost); ok && host.CanHostDensity() {
		return ModeHeatmap
	}
	return ModeMarkers
}

// Targets lists the selectable countries of the current result: those with
// a coordinate, in grouping order.
func (r *Renderer) Targets() []string {
	var out []string
	for _, c := range r.snap.Groups.Countries() {
		if _, ok := r.table.Lookup(c); ok {
			out = append(out, c)
		}
	}
	return out
}

// Activate flies the camera to country. It reports false when the country
// has no coordinate; the camera is left where it was.
func (r *Renderer) Activate(country string) bool {
	coord, ok := r.table.Lookup(country)
	if !ok {
		return false
	}
	r.surface.FlyTo(coord, r.opts.FlyZoom)
	return true
}

func (r *Renderer) ResetView() {
	r.surface.ResetView()
}
