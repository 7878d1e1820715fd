package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the shortest readable text trusted as the main
// content. Shorter results fall back to the whole body text.
const minContentLength = 50

// MainText returns the readable main-content text of a page, and whether
// readability produced it. When readability fails or finds almost nothing,
// the whole visible body text is returned instead; near-empty result pages
// usually land on this path.
func MainText(rawHTML string, pageURL string) (string, bool) {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Debug("readability: invalid page URL, using body text", "url", pageURL, "error", err)
		return BodyText(rawHTML), false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed, using body text", "url", pageURL, "error", err)
		return BodyText(rawHTML), false
	}

	text := collapseSpace(article.TextContent)
	if len(text) < minContentLength {
		return BodyText(rawHTML), false
	}
	return text, true
}

// ContainsMarker reports whether marker appears in the main content of the
// page. Matching is case-insensitive. An empty marker never matches.
//
// Restricting the check to the main content keeps a "No Results Found"
// string inside a sidebar search widget from ending pagination.
func ContainsMarker(rawHTML, pageURL, marker string) bool {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return false
	}
	text, _ := MainText(rawHTML, pageURL)
	return strings.Contains(strings.ToLower(text), strings.ToLower(marker))
}
