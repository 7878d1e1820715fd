package engine

import (
	"fmt"
	"strings"
	"time"
)

// Options carries the settings shared by the non-browser engines.
type Options struct {
	UserAgent        string
	Timeout          time.Duration
	RespectRobotsTxt bool
}

// Build turns engine names into engines, in order. Browser engines are
// only accepted when rodFetch is non-nil.
func Build(names []string, opts Options, rodFetch RodFetchFunc) ([]Engine, error) {
	engines := make([]Engine, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "http":
			engines = append(engines, NewHTTPEngine(HTTPOptions{
				Timeout:   opts.Timeout,
				UserAgent: opts.UserAgent,
			}))
		case "colly":
			engines = append(engines, NewCollyEngine(CollyOptions{
				UserAgent:        opts.UserAgent,
				Timeout:          opts.Timeout,
				RespectRobotsTxt: opts.RespectRobotsTxt,
			}))
		case "rod", "rod-stealth":
			if rodFetch == nil {
				return nil, fmt.Errorf("engine %q needs the browser (set SCRAPER_BROWSER=true)", name)
			}
			engines = append(engines, NewRodEngine(rodFetch, name == "rod-stealth"))
		default:
			return nil, fmt.Errorf("unknown engine %q", raw)
		}
	}

	if len(engines) == 0 {
		return nil, fmt.Errorf("no engines configured")
	}
	return engines, nil
}
