package cleaner

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// CompileSelector parses a CSS selector group such as "div.venue, li.card".
func CompileSelector(selector string) (cascadia.SelectorGroup, error) {
	sel, err := cascadia.ParseGroup(strings.TrimSpace(selector))
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", selector, err)
	}
	return sel, nil
}

// SelectBlocks returns the outer HTML of every element matching sel, in
// document order. Nested matches are returned separately as well.
// No match yields an empty slice.
func SelectBlocks(rawHTML string, sel cascadia.Matcher) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	matches := cascadia.QueryAll(doc, sel)
	blocks := make([]string, 0, len(matches))

	var buf bytes.Buffer
	for _, node := range matches {
		buf.Reset()
		if err := html.Render(&buf, node); err != nil {
			return nil, err
		}
		blocks = append(blocks, buf.String())
	}
	return blocks, nil
}
