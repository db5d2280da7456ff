package tui

// truncateEnd cuts s to limit runes, ending in an ellipsis when it had to
// cut. Titles in GDELT data are often non-Latin, so it counts runes.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which matters for export paths and
// share links.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	if right <= 0 {
		return string(r[:left]) + "…"
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// clip returns at most height lines of lines, scrolled so focus and the
// line after it are visible.
func clip(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if focus+2 > height {
		start = focus + 2 - height
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
		start = end - height
	}
	return lines[start:end]
}
