package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// findBestSnippet finds the most relevant text snippet containing search terms
func findBestSnippet(text string, terms []string, maxLength int) string {
	if text == "" {
		return ""
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	bestScore := 0.0
	bestStart := 0
	windowSize := maxLength / 8 // Approximate words in snippet

	if windowSize > len(words) || windowSize == 0 {
		return truncate(text, maxLength)
	}

	for i := 0; i <= len(words)-windowSize; i++ {
		windowText := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(windowText, strings.ToLower(term)) {
				score += 1.0
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	snippet := strings.Join(words[bestStart:bestStart+windowSize], " ")
	return truncate(snippet, maxLength)
}

// tokenize breaks text into searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); utf8.RuneCountInString(term) > 1 { // Skip single chars
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if utf8.RuneCountInString(current.String()) > 1 {
		terms = append(terms, current.String())
	}

	return terms
}

// truncate limits text to maxLen runes, ending in an ellipsis when cut
func truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 1 {
		return "…"
	}
	return string([]rune(text)[:maxLen-1]) + "…"
}
