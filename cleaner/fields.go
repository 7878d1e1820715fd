package cleaner

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/scrapeconsole/models"
)

// ExtractFields pulls the requested keys out of one venue block without an
// LLM. For each key it tries, in order:
//
//   - microdata and data attributes (itemprop, data-field, data-name)
//   - an element whose class contains the key
//   - a "Key: value" line in the block text
//
// "name" falls back to the first heading, link and image keys to the
// first a[href] or img[src]. Those read href/src resolved against pageURL. A key that cannot
// be found is set to nil so the completeness filter can reject the block.
func ExtractFields(blockHTML string, keys []string, pageURL string) (models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blockHTML))
	if err != nil {
		return nil, fmt.Errorf("parse block: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	base, _ := url.Parse(pageURL)
	root := doc.Find("body")
	lines := textLines(root)

	rec := make(models.Record, len(keys))
	for _, key := range keys {
		rec[key] = nil
		if v := fieldValue(root, key, base); v != "" {
			rec[key] = v
			continue
		}
		if v := labelledValue(lines, key); v != "" {
			rec[key] = v
			continue
		}
		k := strings.ToLower(key)
		switch {
		case isImageKey(k):
			if src, ok := root.Find("img[src]").First().Attr("src"); ok {
				rec[key] = resolve(base, strings.TrimSpace(src))
			}
		case isLinkKey(k):
			if href, ok := root.Find("a[href]").First().Attr("href"); ok {
				rec[key] = resolve(base, strings.TrimSpace(href))
			}
		case k == "name":
			if h := collapseSpace(root.Find("h1, h2, h3, h4, h5, h6").First().Text()); h != "" {
				rec[key] = h
			}
		}
	}
	return rec, nil
}

func fieldValue(root *goquery.Selection, key string, base *url.URL) string {
	k := strings.ToLower(key)
	slug := strings.ReplaceAll(k, " ", "-")
	candidates := []string{
		fmt.Sprintf(`[itemprop=%q]`, k),
		fmt.Sprintf(`[data-field=%q]`, k),
		fmt.Sprintf(`[data-name=%q]`, k),
		fmt.Sprintf(`[class~=%q]`, slug),
		fmt.Sprintf(`[class*=%q]`, slug),
	}
	for _, sel := range candidates {
		node := root.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if v := nodeValue(node, k, base); v != "" {
			return v
		}
	}
	return ""
}

// nodeValue reads the value carried by one matched element.
func nodeValue(node *goquery.Selection, key string, base *url.URL) string {
	switch {
	case isImageKey(key):
		if src := attrOrDescendant(node, "img", "src"); src != "" {
			return resolve(base, src)
		}
	case isLinkKey(key):
		if href := attrOrDescendant(node, "a", "href"); href != "" {
			return resolve(base, href)
		}
	}
	for _, attr := range []string{"content", "data-value", "datetime"} {
		if v, ok := node.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return collapseSpace(node.Text())
}

func attrOrDescendant(node *goquery.Selection, tag, attr string) string {
	if goquery.NodeName(node) == tag {
		if v, ok := node.Attr(attr); ok {
			return strings.TrimSpace(v)
		}
	}
	v, _ := node.Find(tag).First().Attr(attr)
	return strings.TrimSpace(v)
}

func isImageKey(key string) bool {
	return strings.Contains(key, "image") || strings.Contains(key, "photo") || strings.Contains(key, "img")
}

func isLinkKey(key string) bool {
	return key == "url" || key == "link" || key == "website" || strings.HasSuffix(key, "_url")
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

var labelPattern = regexp.MustCompile(`^\s*([^:]{1,40}?)\s*:\s*(.+?)\s*$`)

// labelledValue finds "Key: value" among the block's text lines.
func labelledValue(lines []string, key string) string {
	want := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	for _, line := range lines {
		m := labelPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.ToLower(strings.ReplaceAll(m[1], "_", " ")) == want {
			return m[2]
		}
	}
	return ""
}

// textLines splits the block into the text of its leaf-ish elements.
func textLines(root *goquery.Selection) []string {
	var lines []string
	root.Find("p, li, span, div, dd, td").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if t := collapseSpace(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	return lines
}
