package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/app"
	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/mapview"
)

const AppName = "newsmap"

// ASCII art logo lines for newsmap
var LogoLines = []string{
	"█▄ █ █▀▀ █ █ █ █▀▀ █▀▄▀█ ▄▀█ █▀█",
	"█ ▀█ ██▄ ▀▄▀▄▀ ▄▄█ █ ▀ █ █▀█ █▀▀",
}

const CompactLogo = `newsmap ◉`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF4136"),
	lipgloss.Color("#FF851B"),
	lipgloss.Color("#FFDC00"),
	lipgloss.Color("#4ECDC4"),
}

// Theme is the set of styles for one palette. The app keeps a dark and a
// light theme and switches on the persisted preference.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Surface   lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warn      lipgloss.Color

	Logo      lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
	Help      lipgloss.Style
	MutedText lipgloss.Style
	Tag       lipgloss.Style
	Panel     lipgloss.Style
	Focused   lipgloss.Style

	palette mapview.Palette
	glamour string
}

// NewTheme builds styles from configured colours. glamourStyle is the
// standard glamour style name used for the reader.
func NewTheme(c config.UIColors, glamourStyle string) Theme {
	t := Theme{
		Primary:   lipgloss.Color(c.Primary),
		Secondary: lipgloss.Color(c.Secondary),
		Accent:    lipgloss.Color(c.Accent),
		Text:      lipgloss.Color(c.Text),
		Muted:     lipgloss.Color(c.Muted),
		Surface:   lipgloss.Color(c.Surface),
		Error:     lipgloss.Color(c.Error),
		Success:   lipgloss.Color(c.Success),
		Warn:      lipgloss.Color(c.TierC),
		glamour:   glamourStyle,
	}

	t.Logo = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Title = lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Bold(true).
		Padding(0, 2)
	t.Header = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Background)).
		Background(t.Accent).
		Bold(true)
	t.Help = lipgloss.NewStyle().Foreground(t.Muted).Italic(true)
	t.MutedText = lipgloss.NewStyle().Foreground(t.Muted)
	t.Tag = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted)
	t.Focused = t.Panel.BorderForeground(t.Accent)

	t.palette = mapview.Palette{
		Land:     lipgloss.Color(c.Land),
		TierA:    lipgloss.Color(c.TierA),
		TierB:    lipgloss.Color(c.TierB),
		TierC:    lipgloss.Color(c.TierC),
		Cluster:  t.Secondary,
		HeatLow:  lipgloss.Color(c.TierC),
		HeatMid:  lipgloss.Color(c.TierB),
		HeatHigh: lipgloss.Color(c.TierA),
		Selected: t.Accent,
	}
	return t
}

// Palette is the map colouring for this theme.
func (t Theme) Palette() mapview.Palette {
	return t.palette
}

// StatusStyle colours a notice by severity.
func (t Theme) StatusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return lipgloss.NewStyle().Foreground(t.Success)
	case StatusWarn:
		return lipgloss.NewStyle().Foreground(t.Warn)
	case StatusError:
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	default:
		return t.MutedText
	}
}

// statusKind maps a dispatcher notice onto the UI severity scale.
func statusKind(k app.NoticeKind) StatusKind {
	switch k {
	case app.NoticeSuccess:
		return StatusSuccess
	case app.NoticeWarn:
		return StatusWarn
	case app.NoticeError:
		return StatusError
	default:
		return StatusInfo
	}
}

func (t Theme) CompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, t.Logo.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		t.Help.Render(message),
	)
}

// Banner returns the framed logo printed by the version command.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("GDELT news on a map %s", versionTag))
	} else {
		lines = append(lines, "GDELT news on a map")
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	borderStyle := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		Padding(1, 3)

	banner := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)
	output := borderStyle.Render(banner)

	separator := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF851B")).
		Render("• o O @ O o •")

	return lipgloss.JoinVertical(lipgloss.Center, output, separator)
}
