package cleaner

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// blockSeparator sits between venue blocks in the LLM prompt so the model
// can tell where one venue ends.
const blockSeparator = "\n\n---\n\n"

// newMarkdownConverter creates a goroutine-safe converter with the base,
// commonmark and table plugins. Tables use minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts HTML to Markdown, resolving relative links against domain.
func ToMarkdown(conv *converter.Converter, htmlContent string, domain string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(domain))
}

// BlocksToMarkdown converts each block and joins the non-empty results with
// a horizontal rule.
func BlocksToMarkdown(conv *converter.Converter, blocks []string, domain string) (string, error) {
	parts := make([]string, 0, len(blocks))
	for i, b := range blocks {
		md, err := ToMarkdown(conv, b, domain)
		if err != nil {
			return "", fmt.Errorf("block %d: %w", i+1, err)
		}
		if md = strings.TrimSpace(md); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, blockSeparator), nil
}
