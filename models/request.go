package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxPages is the page limit applied when a request omits max_pages.
const DefaultMaxPages = 10

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// BaseURL is the listing page. The job appends ?page=N to it. Required.
	BaseURL string `json:"base_url"`

	// CSSSelector picks one block per venue on each page. Required.
	CSSSelector string `json:"css_selector"`

	// RequiredKeys lists the fields every kept record must carry, in column order.
	// Required, at least one.
	RequiredKeys []string `json:"required_keys"`

	// MaxPages bounds the pagination. Accepts 5 or {"value": 5}.
	// Default: 10.
	MaxPages PageLimit `json:"max_pages,omitempty"`
}

// Normalize trims the textual fields and drops blank keys.
func (r *ScrapeRequest) Normalize() {
	r.BaseURL = strings.TrimSpace(r.BaseURL)
	r.CSSSelector = strings.TrimSpace(r.CSSSelector)

	keys := make([]string, 0, len(r.RequiredKeys))
	for _, k := range r.RequiredKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	r.RequiredKeys = keys
}

// Defaults applies the default page limit and caps it at limit.
// A non-positive limit disables the cap.
func (r *ScrapeRequest) Defaults(limit int) {
	if r.MaxPages == 0 {
		r.MaxPages = DefaultMaxPages
	}
	if limit > 0 && int(r.MaxPages) > limit {
		r.MaxPages = PageLimit(limit)
	}
}

// Validate reports the first problem with a normalized request.
func (r *ScrapeRequest) Validate() error {
	if r.BaseURL == "" || r.CSSSelector == "" || len(r.RequiredKeys) == 0 {
		return NewScrapeError(ErrCodeInvalidInput, "Missing base_url, css_selector, or required_keys", nil)
	}

	u, err := url.Parse(r.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewScrapeError(ErrCodeInvalidInput, "base_url must be an absolute http(s) URL", err)
	}

	if r.MaxPages < 0 {
		return NewScrapeError(ErrCodeInvalidInput, "max_pages must be positive", nil)
	}
	return nil
}

// PageLimit is a page count that decodes from a number, a numeric string,
// or an object of the form {"value": n}.
type PageLimit int

// UnmarshalJSON implements json.Unmarshaler.
func (p *PageLimit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var wrapped struct {
			Value *PageLimit `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("max_pages: %w", err)
		}
		if wrapped.Value != nil {
			*p = *wrapped.Value
		}
		return nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("max_pages: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("max_pages: %q is not an integer", s)
		}
		*p = PageLimit(n)
		return nil

	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("max_pages: %w", err)
		}
		*p = PageLimit(int(f))
		return nil
	}
}
