package console

import (
	"errors"
	"strings"

	"github.com/use-agent/scrapeconsole/models"
)

// AlertMissingFields is shown when a required form field is blank.
const AlertMissingFields = "Please fill all fields (URL, selector, required keys)."

// ErrMissingFields is returned by Form.Request when the base URL, the CSS
// selector or the required keys input is blank.
var ErrMissingFields = errors.New("console: base url, css selector and required keys are required")

// Form holds the raw values of the scrape form fields.
type Form struct {
	BaseURL      string // baseUrl
	CSSSelector  string // cssSelector
	RequiredKeys string // requiredKeys, comma separated
	MaxPages     string // maxPages
}

// ParseRequiredKeys splits a comma-separated keys input and trims each
// piece. Order is kept and duplicates are not removed.
func ParseRequiredKeys(s string) []string {
	parts := strings.Split(strings.TrimSpace(s), ",")
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = strings.TrimSpace(p)
	}
	return keys
}

// ParseMaxPages reads the leading integer of s, the way an HTML number
// input is usually read ("12", " 12 ", "12 pages"). It reports false when
// s does not start with a number.
func ParseMaxPages(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if n > 1<<30 {
			break
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Request validates the form and builds the scrape request. maxPages is the
// value captured when the console opened; zero leaves max_pages out of the
// payload so the server default applies.
func (f Form) Request(maxPages int) (models.ScrapeRequest, error) {
	baseURL := strings.TrimSpace(f.BaseURL)
	selector := strings.TrimSpace(f.CSSSelector)
	keysInput := strings.TrimSpace(f.RequiredKeys)
	if baseURL == "" || selector == "" || keysInput == "" {
		return models.ScrapeRequest{}, ErrMissingFields
	}

	return models.ScrapeRequest{
		BaseURL:      baseURL,
		CSSSelector:  selector,
		RequiredKeys: ParseRequiredKeys(keysInput),
		MaxPages:     models.PageLimit(maxPages),
	}, nil
}
