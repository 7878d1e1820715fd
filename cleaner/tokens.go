package cleaner

import "unicode/utf8"

// EstimateTokens approximates the LLM token count of text as runes / 3.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if est := n / 3; est > 0 {
		return est
	}
	return 1
}

// TruncateRunes cuts text to at most max runes. A non-positive max keeps
// the text whole.
func TruncateRunes(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	i := 0
	for pos := range text {
		if i == max {
			return text[:pos], true
		}
		i++
	}
	return text, false
}
