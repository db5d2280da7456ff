// Package geocode maps GDELT source-country names to map coordinates.
package geocode

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed capitals.toml
var capitalsTOML []byte

// Coord is a latitude/longitude pair in degrees.
type Coord struct {
	Lat float64
	Lon float64
}

// Table is a read-only country → capital lookup, loaded once at startup.
type Table struct {
	coords map[string]Coord
}

type tableFile struct {
	Countries map[string][]float64 `toml:"countries"`
}

// Load decodes the built-in capital table.
func Load() (*Table, error) {
	t := &Table{coords: make(map[string]Coord)}
	if err := t.merge(capitalsTOML); err != nil {
		return nil, fmt.Errorf("loading built-in geocode table: %w", err)
	}
	return t, nil
}

// LoadWithOverrides loads the built-in table and merges a user file on top.
// A missing override file is ignored.
func LoadWithOverrides(path string) (*Table, error) {
	t, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading geocode overrides: %w", err)
	}
	if err := t.merge(data); err != nil {
		return nil, fmt.Errorf("loading geocode overrides %s: %w", path, err)
	}
	return t, nil
}

func (t *Table) merge(data []byte) error {
	var f tableFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}
	for name, pair := range f.Countries {
		if len(pair) != 2 {
			return fmt.Errorf("country %q: want [lat, lon], got %d values", name, len(pair))
		}
		c := Coord{Lat: pair[0], Lon: pair[1]}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("country %q: coordinate out of range", name)
		}
		t.coords[name] = c
	}
	return nil
}

// Lookup returns the coordinate for country. Unknown countries report false
// and are left off the map.
func (t *Table) Lookup(country string) (Coord, bool) {
	if t == nil {
		return Coord{}, false
	}
	c, ok := t.coords[country]
	return c, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.coords)
}

// Countries lists the known countries alphabetically.
func (t *Table) Countries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.coords))
	for name := range t.coords {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds a table from explicit coordinates, for tests and callers that
// want a restricted set.
func New(coords map[string]Coord) *Table {
	t := &Table{coords: make(map[string]Coord, len(coords))}
	for k, v := range coords {
		t.coords[k] = v
	}
	return t
}
