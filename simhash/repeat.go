package simhash

import (
	"hash/fnv"
	"strings"

	"golang.org/x/net/html"
)

// RepeatDetector compares each page of a job with the page before it.
// It is not safe for concurrent use.
type RepeatDetector struct {
	enabled bool
	page    int
	lastKey uint64
	lastFP  uint64
}

// NewRepeatDetector creates a detector. A disabled detector never reports
// a repeat.
func NewRepeatDetector(enabled bool) *RepeatDetector {
	return &RepeatDetector{enabled: enabled}
}

// Observe records the visible text of the next page. It returns the number
// of the previous page when both carry exactly the same normalised text, or
// 0. distance is the SimHash distance to the previous page, -1 on the first
// page. Empty content never repeats.
func (d *RepeatDetector) Observe(text string) (repeatOf, distance int) {
	key, fp := ContentKey(text), Fingerprint(text)
	prevKey, prevFP := d.lastKey, d.lastFP
	d.page++
	d.lastKey, d.lastFP = key, fp

	distance = -1
	if d.page > 1 {
		distance = Distance(prevFP, fp)
	}
	if d.enabled && key != 0 && key == prevKey {
		return d.page - 1, distance
	}
	return 0, distance
}

// ContentKey hashes text after lower-casing it and collapsing whitespace.
// It returns 0 for blank text.
func ContentKey(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}
	h := fnv.New64a()
	for i, w := range words {
		if i > 0 {
			h.Write([]byte{' '})
		}
		h.Write([]byte(w))
	}
	return h.Sum64()
}
// TextOf returns the visible text of an HTML fragment, skipping script and
// style contents.
func TextOf(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if isHidden(string(tn)) {
				skip++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if isHidden(string(tn)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript" || tag == "template"
}
