// Package cleaner turns fetched listing pages into the pieces the job
// runner works with: venue blocks, their Markdown for the LLM, and plain
// text for the end-of-results check.
package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// Cleaner holds the shared Markdown converter. It is safe for concurrent use.
type Cleaner struct {
	conv *converter.Converter
}

// New creates a Cleaner.
func New() *Cleaner {
	return &Cleaner{conv: newMarkdownConverter()}
}

// Prompt converts selected venue blocks into one Markdown document, cut to
// maxChars runes. The second return reports whether it was truncated.
func (c *Cleaner) Prompt(blocks []string, domain string, maxChars int) (string, bool, error) {
	cleaned := make([]string, len(blocks))
	for i, b := range blocks {
		cleaned[i] = StripNoise(b)
	}
	md, err := BlocksToMarkdown(c.conv, cleaned, domain)
	if err != nil {
		return "", false, err
	}
	out, truncated := TruncateRunes(md, maxChars)
	return out, truncated, nil
}
