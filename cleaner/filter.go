package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches elements that never carry venue fields.
const noiseSelector = "script, style, noscript, template, svg, iframe"

// StripNoise removes scripts, styles and similar elements from an HTML
// fragment. On parse failure the input is returned unchanged.
func StripNoise(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find(noiseSelector).Remove()

	body := doc.Find("body")
	out, err := body.Html()
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(out)
}

// BodyText returns the whitespace-collapsed visible text of a document.
func BodyText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	doc.Find(noiseSelector).Remove()
	return collapseSpace(doc.Find("body").Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
