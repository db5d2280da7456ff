// Package mapview projects the article store onto a map surface in one of
// three mutually exclusive encodings: per-country markers, per-article
// clusters, or a weighted density heatmap.
package mapview

import "fmt"

// Mode is the active visualization encoding.
type Mode int

const (
	ModeMarkers Mode = iota
	ModeClusters
	ModeHeatmap
)

func (m Mode) String() string {
	switch m {
	case ModeMarkers:
		return "markers"
	case ModeClusters:
		return "clusters"
	case ModeHeatmap:
		return "heatmap"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the lower-case mode names.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeMarkers, ModeClusters, ModeHeatmap} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeMarkers, fmt.Errorf("unknown visualization mode %q", s)
}

// Toggle returns the mode after the user selects target while m is active.
// Selecting the active non-default mode turns it off again.
func (m Mode) Toggle(target Mode) Mode {
	if target == m && target != ModeMarkers {
		return ModeMarkers
	}
	return target
}
