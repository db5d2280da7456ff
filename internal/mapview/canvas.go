package mapview

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/geocode"
)

const (
	minZoom = 2
	maxZoom = 9
	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 2.0
	heatSigma  = 2.5
)

// Camera is the map view: centre coordinate and zoom. Zoom 2 shows the
// whole world across the canvas width; each step halves the span.
type Camera struct {
	Center geocode.Coord
	Zoom   float64
}

// Palette colours the canvas.
type Palette struct {
	Land     lipgloss.Color
	TierA    lipgloss.Color
	TierB    lipgloss.Color
	TierC    lipgloss.Color
	Cluster  lipgloss.Color
	HeatLow  lipgloss.Color
	HeatMid  lipgloss.Color
	HeatHigh lipgloss.Color
	Selected lipgloss.Color
}

// Canvas is a character-cell Surface using an equirectangular projection.
type Canvas struct {
	width, height int
	home          Camera
	cam           Camera
	layers        []Layer
	clusterRadius float64

	maskKey string
	mask    [][]bool
}

func NewCanvas(home Camera, clusterRadius float64) *Canvas {
	home.Zoom = clampZoom(home.Zoom)
	if clusterRadius <= 0 {
		clusterRadius = 2
	}
	return &Canvas{home: home, cam: home, clusterRadius: clusterRadius}
}

func (c *Canvas) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width, c.height = width, height
}

func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

func (c *Canvas) Clear() {
	c.layers = nil
}

func (c *Canvas) AddLayer(l Layer) {
	c.layers = append(c.layers, l)
}

func (c *Canvas) Layers() []Layer {
	return append([]Layer(nil), c.layers...)
}

func (c *Canvas) FlyTo(coord geocode.Coord, zoom float64) {
	c.cam = Camera{Center: coord, Zoom: clampZoom(zoom)}
}

func (c *Canvas) ResetView() {
	c.cam = c.home
}

func (c *Canvas) Camera() Camera {
	return c.cam
}

// CanHostDensity is false until the canvas has been given a size.
func (c *Canvas) CanHostDensity() bool {
	return c.width > 0 && c.height > 0
}

// Pan moves the camera by whole cells.
func (c *Canvas) Pan(dx, dy int) {
	lonSpan, latSpan := c.spans()
	if c.width == 0 || c.height == 0 {
		return
	}
	c.cam.Center.Lon = wrapLon(c.cam.Center.Lon + float64(dx)*lonSpan/float64(c.width))
	lat := c.cam.Center.Lat - float64(dy)*latSpan/float64(c.height)
	c.cam.Center.Lat = math.Max(-85, math.Min(85, lat))
}

// ZoomBy changes the zoom level by delta, within bounds.
func (c *Canvas) ZoomBy(delta float64) {
	c.cam.Zoom = clampZoom(c.cam.Zoom + delta)
}

func (c *Canvas) spans() (lonSpan, latSpan float64) {
	lonSpan = 360 / math.Pow(2, c.cam.Zoom-minZoom)
	if c.width == 0 {
		return lonSpan, lonSpan / 2
	}
	latSpan = lonSpan * cellAspect * float64(c.height) / float64(c.width)
	return lonSpan, latSpan
}

// Project maps a coordinate to fractional cell coordinates.
func (c *Canvas) Project(coord geocode.Coord) (float64, float64, bool) {
	if c.width == 0 || c.height == 0 {
		return 0, 0, false
	}
	lonSpan, latSpan := c.spans()
	dlon := wrapLon(coord.Lon - c.cam.Center.Lon)
	x := dlon/lonSpan*float64(c.width) + float64(c.width)/2
	y := (c.cam.Center.Lat-coord.Lat)/latSpan*float64(c.height) + float64(c.height)/2
	if x < 0 || y < 0 || x >= float64(c.width) || y >= float64(c.height) {
		return x, y, false
	}
	return x, y, true
}

func (c *Canvas) unproject(x, y float64) (geocode.Coord, bool) {
	lonSpan, latSpan := c.spans()
	lon := c.cam.Center.Lon + (x-float64(c.width)/2)/float64(c.width)*lonSpan
	lat := c.cam.Center.Lat - (y-float64(c.height)/2)/float64(c.height)*latSpan
	if lat > 90 || lat < -90 {
		return geocode.Coord{}, false
	}
	return geocode.Coord{Lat: lat, Lon: wrapLon(lon)}, true
}

type cellKind int

const (
	kindWater cellKind = iota
	kindLand
	kindTierA
	kindTierB
	kindTierC
	kindCluster
	kindHeatLow
	kindHeatMid
	kindHeatHigh
	kindSelected
)

type cell struct {
	r rune
	k cellKind
}

// Render draws the land mask and the active layer. selected, if it names a
// country on the map, is bracketed.
func (c *Canvas) Render(p Palette, selected string) string {
	if c.width == 0 || c.height == 0 {
		return ""
	}
	grid := c.base()
	for _, l := range c.layers {
		switch l.Mode {
		case ModeMarkers:
			c.drawMarkers(grid, l.Markers, selected)
		case ModeClusters:
			c.drawClusters(grid, l.Points, selected)
		case ModeHeatmap:
			c.drawHeat(grid, l.Heat)
		}
	}
	return c.paint(grid, p)
}

func (c *Canvas) base() [][]cell {
	key := strconv.Itoa(c.width) + "x" + strconv.Itoa(c.height) + "@" +
		strconv.FormatFloat(c.cam.Center.Lat, 'f', 3, 64) + "," +
		strconv.FormatFloat(c.cam.Center.Lon, 'f', 3, 64) + "z" +
		strconv.FormatFloat(c.cam.Zoom, 'f', 2, 64)
	if key != c.maskKey {
		c.mask = make([][]bool, c.height)
		for y := range c.mask {
			c.mask[y] = make([]bool, c.width)
			for x := range c.mask[y] {
				if coord, ok := c.unproject(float64(x)+0.5, float64(y)+0.5); ok {
					c.mask[y][x] = isLand(coord.Lon, coord.Lat)
				}
			}
		}
		c.maskKey = key
	}

	grid := make([][]cell, c.height)
	for y := range grid {
		grid[y] = make([]cell, c.width)
		for x := range grid[y] {
			if c.mask[y][x] {
				grid[y][x] = cell{r: '·', k: kindLand}
			} else {
				grid[y][x] = cell{r: ' ', k: kindWater}
			}
		}
	}
	return grid
}

func (c *Canvas) put(grid [][]cell, x, y int, r rune, k cellKind) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = cell{r: r, k: k}
}

func (c *Canvas) putString(grid [][]cell, x, y int, s string, k cellKind) {
	for i, r := range []rune(s) {
		c.put(grid, x+i, y, r, k)
	}
}

var markerGlyphs = [...]rune{SizeSmall: '•', SizeMedium: 'o', SizeLarge: 'O', SizeHuge: '@'}

func (c *Canvas) drawMarkers(grid [][]cell, markers []Marker, selected string) {
	for _, m := range markers {
		fx, fy, ok := c.Project(m.Coord)
		if !ok {
			continue
		}
		x, y := int(fx), int(fy)
		k := kindTierC
		switch m.Tier {
		case TierA:
			k = kindTierA
		case TierB:
			k = kindTierB
		}
		c.put(grid, x, y, markerGlyphs[m.Size], k)
		if m.Country == selected {
			c.put(grid, x-1, y, '[', kindSelected)
			c.put(grid, x+1, y, ']', kindSelected)
		}
	}
}

func (c *Canvas) drawClusters(grid [][]cell, points []Point, selected string) {
	for _, b := range Aggregate(points, c.Project, c.clusterRadius) {
		label := strconv.Itoa(b.Count)
		switch b.Size {
		case SizeMedium:
			label = "(" + label + ")"
		case SizeLarge:
			label = "[" + label + "]"
		}
		k := kindCluster
		for _, country := range b.Countries {
			if country == selected {
				k = kindSelected
				break
			}
		}
		x := int(b.X) - len(label)/2
		c.putString(grid, x, int(b.Y), label, k)
	}
}

// Density computes the normalized heat surface for the canvas: each point
// deposits its weight through a gaussian kernel measured in cells, and the
// result is scaled so the hottest cell is 1.
func (c *Canvas) Density(points []HeatPoint) [][]float64 {
	d := make([][]float64, c.height)
	for y := range d {
		d[y] = make([]float64, c.width)
	}
	reach := int(math.Ceil(3 * heatSigma))
	peak := 0.0
	for _, p := range points {
		px, py, ok := c.Project(p.Coord)
		if !ok {
			continue
		}
		cx, cy := int(px), int(py)
		for y := cy - reach; y <= cy+reach; y++ {
			if y < 0 || y >= c.height {
				continue
			}
			for x := cx - reach*int(cellAspect); x <= cx+reach*int(cellAspect); x++ {
				if x < 0 || x >= c.width {
					continue
				}
				dx := float64(x-cx) / cellAspect
				dy := float64(y - cy)
				v := p.Weight * math.Exp(-(dx*dx+dy*dy)/(2*heatSigma*heatSigma))
				d[y][x] += v
				if d[y][x] > peak {
					peak = d[y][x]
				}
			}
		}
	}
	if peak > 0 {
		for y := range d {
			for x := range d[y] {
				d[y][x] /= peak
			}
		}
	}
	return d
}

func (c *Canvas) drawHeat(grid [][]cell, points []HeatPoint) {
	d := c.Density(points)
	for y := range d {
		for x, v := range d[y] {
			switch {
			case v >= 0.75:
				c.put(grid, x, y, '█', kindHeatHigh)
			case v >= 0.5:
				c.put(grid, x, y, '▓', kindHeatHigh)
			case v >= 0.25:
				c.put(grid, x, y, '▒', kindHeatMid)
			case v >= 0.05:
				c.put(grid, x, y, '░', kindHeatLow)
			}
		}
	}
}

func (c *Canvas) paint(grid [][]cell, p Palette) string {
	styles := map[cellKind]lipgloss.Style{
		kindWater:    lipgloss.NewStyle(),
		kindLand:     lipgloss.NewStyle().Foreground(p.Land),
		kindTierA:    lipgloss.NewStyle().Foreground(p.TierA).Bold(true),
		kindTierB:    lipgloss.NewStyle().Foreground(p.TierB).Bold(true),
		kindTierC:    lipgloss.NewStyle().Foreground(p.TierC),
		kindCluster:  lipgloss.NewStyle().Foreground(p.Cluster).Bold(true),
		kindHeatLow:  lipgloss.NewStyle().Foreground(p.HeatLow),
		kindHeatMid:  lipgloss.NewStyle().Foreground(p.HeatMid),
		kindHeatHigh: lipgloss.NewStyle().Foreground(p.HeatHigh),
		kindSelected: lipgloss.NewStyle().Foreground(p.Selected).Bold(true),
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].k == row[start].k {
				continue
			}
			var run strings.Builder
			for _, cl := range row[start:x] {
				run.WriteRune(cl.r)
			}
			if row[start].k == kindWater {
				b.WriteString(run.String())
			} else {
				b.WriteString(styles[row[start].k].Render(run.String()))
			}
			start = x
		}
	}
	return b.String()
}

func clampZoom(z float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, z))
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
