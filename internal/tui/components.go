package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsmap/internal/paging"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func (t Theme) renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{t.Header.Render(title)}
	if subtitle != "" {
		rows = append(rows, t.MutedText.Render(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func (t Theme) renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := t.Muted
	if focused {
		borderColor = t.Accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderPager draws the page-button strip; it is empty for a single page.
func (t Theme) renderPager(current, total int) string {
	buttons := paging.Buttons(current, total)
	if len(buttons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		switch b.Kind {
		case paging.ButtonPrev:
			parts = append(parts, t.MutedText.Render("‹"))
		case paging.ButtonNext:
			parts = append(parts, t.MutedText.Render("›"))
		case paging.ButtonEllipsis:
			parts = append(parts, t.MutedText.Render("…"))
		default:
			label := strconv.Itoa(b.Page)
			if b.Active {
				parts = append(parts, t.Selected.Render(" "+label+" "))
			} else {
				parts = append(parts, label)
			}
		}
	}
	return strings.Join(parts, " ")
}

// renderBox frames an overlay in the accent border.
func (t Theme) renderBox(width int, content string) string {
	return t.Focused.
		Padding(1, 2).
		Width(width).
		Render(content)
}

// shortHelp renders "key: action" hints as a one-line help view.
func (t Theme) shortHelp(h help.Model, hints []string) string {
	bindings := make([]key.Binding, 0, len(hints))
	for _, hint := range hints {
		k, desc, _ := strings.Cut(hint, ": ")
		bindings = append(bindings, key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc)))
	}
	h.ShortSeparator = " • "
	h.Styles.ShortKey = t.Tag
	h.Styles.ShortDesc = t.Help
	h.Styles.ShortSeparator = t.MutedText
	return h.ShortHelpView(bindings)
}
