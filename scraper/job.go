// Package scraper runs paginated venue scraping jobs and owns the optional
// headless browser behind the rod engines.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/scrapeconsole/cache"
	"github.com/use-agent/scrapeconsole/cleaner"
	"github.com/use-agent/scrapeconsole/config"
	"github.com/use-agent/scrapeconsole/engine"
	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/metrics"
	"github.com/use-agent/scrapeconsole/models"
	"github.com/use-agent/scrapeconsole/simhash"
)

// LogFunc receives the tagged progress lines of a job.
type LogFunc func(format string, args ...any)

// Result is what a finished job collected.
type Result struct {
	Records []models.Record
	Pages   int // pages loaded, including the one that ended the job
}

// Options wires a Scraper.
type Options struct {
	Fetcher      engine.Fetcher
	Extractor    Extractor
	Cache        *cache.Cache     // optional
	Metrics      *metrics.Metrics // optional
	Config       config.ScraperConfig
	FetchTimeout time.Duration
}

// Scraper runs scrape jobs. It holds no per-job state and is safe for
// concurrent use.
type Scraper struct {
	fetcher      engine.Fetcher
	extractor    Extractor
	cache        *cache.Cache
	metrics      *metrics.Metrics
	cfg          config.ScraperConfig
	fetchTimeout time.Duration
}

// New creates a Scraper. A nil Extractor selects the DOM extractor.
func New(opts Options) *Scraper {
	ext := opts.Extractor
	if ext == nil {
		ext = DOMExtractor{}
	}
	return &Scraper{
		fetcher:      opts.Fetcher,
		extractor:    ext,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		cfg:          opts.Config,
		fetchTimeout: opts.FetchTimeout,
	}
}

// ExtractorName reports which extractor the jobs use.
func (s *Scraper) ExtractorName() string { return s.extractor.Name() }

// Run walks page 1..req.MaxPages of req.BaseURL and returns every complete,
// non-duplicate venue. Per-page failures are logged and end the job with
// what was collected so far. Run itself fails only for an invalid selector,
// an LLM credential error, or a canceled context.
func (s *Scraper) Run(ctx context.Context, req *models.ScrapeRequest, logf LogFunc) (*Result, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	sel, err := cleaner.CompileSelector(req.CSSSelector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid css_selector", err)
	}

	maxPages := int(req.MaxPages)
	keys := req.RequiredKeys
	dedupKey := dedupKeyFor(keys, s.cfg.DedupKey)
	seen := make(map[string]struct{})
	repeats := simhash.NewRepeatDetector(s.cfg.RepeatCheck)

	var limiter *rate.Limiter
	if s.cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.cfg.PageDelay), 1)
	}

	result := &Result{Records: []models.Record{}}
	stopped := false
	page := 1

	for ; page <= maxPages; page++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return result, models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", err)
			}
		}

		logf("[INFO] Scraping page %d of max %d...", page, maxPages)
		pageURL, err := PageURL(req.BaseURL, page)
		if err != nil {
			return result, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid base_url", err)
		}
		logf("[LOAD] Page %d - %s", page, pageURL)

		fetched, err := s.fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", ctx.Err())
			}
			logf("[ERROR] Failed to load page %d: %v", page, err)
			stopped = true
			break
		}
		result.Pages++

		if cleaner.ContainsMarker(fetched.HTML, pageURL, s.cfg.NoResultsMarker) {
			logf("[CHECK] %q on page %d. Stopping.", s.cfg.NoResultsMarker, page)
			stopped = true
			break
		}

		blocks, err := cleaner.SelectBlocks(fetched.HTML, sel)
		if err != nil {
			logf("[ERROR] Failed to parse page %d: %v", page, err)
			stopped = true
			break
		}
		if len(blocks) == 0 {
			logf("[INFO] No venues extracted on page %d. Stopping.", page)
			stopped = true
			break
		}

		prev, distance := repeats.Observe(simhash.TextOf(strings.Join(blocks, "\n")))
		if distance >= 0 {
			slog.Debug("page similarity", "url", pageURL, "page", page, "distance", distance)
		}
		if prev > 0 {
			logf("[STOP] Page %d repeats page %d. Stopping.", page, prev)
			stopped = true
			break
		}

		raw, err := s.extractor.Extract(ctx, &Page{Number: page, URL: pageURL, Blocks: blocks}, keys)
		if err != nil {
			if ctx.Err() != nil {
				return result, models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", ctx.Err())
			}
			logf("[ERROR] Failed to extract page %d: %v", page, err)
			var se *models.ScrapeError
			if errors.As(err, &se) && se.Code == models.ErrCodeLLMAuthFailure {
				return result, err
			}
			stopped = true
			break
		}
		if len(raw) == 0 {
			logf("[INFO] No venues extracted on page %d. Stopping.", page)
			stopped = true
			break
		}
		logf("[PARSE] Extracted %d raw records from page %d", len(raw), page)

		complete := s.filter(raw, keys, dedupKey, seen, logf)
		if len(complete) == 0 {
			logf("[INFO] No complete venues on page %d. Stopping.", page)
			stopped = true
			break
		}
		result.Records = append(result.Records, complete...)
		s.metrics.AddRecords(len(complete))
		logf("[SUCCESS] Page %d: %d venues extracted", page, len(complete))
	}

	if stopped {
		logf("[STOP] Ending early after page %d due to condition.", page)
	} else {
		logf("[LIMIT] Reached maximum page limit: %d. Stopping...", maxPages)
	}
	logf("[DONE] Scraping finished. %d total venues collected.", len(result.Records))
	return result, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*engine.FetchResult, error) {
	key := cache.Key(pageURL)
	if res, ok := s.cache.Get(key); ok {
		s.metrics.IncCache("hit")
		return res, nil
	}
	if s.cache != nil {
		s.metrics.IncCache("miss")
	}

	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	res, err := s.fetcher.Dispatch(ctx, &engine.FetchRequest{URL: pageURL, Timeout: s.fetchTimeout})
	if err != nil {
		return nil, err
	}
	s.metrics.IncPage(res.EngineName)
	s.cache.Set(key, res)
	return res, nil
}

// filter applies the record rules in order: a false "error" flag is
// dropped, incomplete records are skipped, then duplicates by dedupKey.
// Kept records carry only the required keys.
func (s *Scraper) filter(raw []models.Record, keys []string, dedupKey string, seen map[string]struct{}, logf LogFunc) []models.Record {
	var out []models.Record
	for _, rec := range raw {
		if v, ok := rec["error"]; ok && v == false {
			delete(rec, "error")
		}
		if !IsComplete(rec, keys) {
			s.metrics.IncSkipped("incomplete")
			continue
		}

		id := export.FormatValue(rec[dedupKey])
		if _, dup := seen[id]; dup {
			logf("[SKIP] Duplicate venue '%s'", id)
			s.metrics.IncSkipped("duplicate")
			continue
		}
		seen[id] = struct{}{}

		kept := make(models.Record, len(keys))
		for _, k := range keys {
			kept[k] = rec[k]
		}
		out = append(out, kept)
	}
	return out
}

// IsComplete reports whether rec has a non-empty value for every key.
func IsComplete(rec models.Record, keys []string) bool {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			return false
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

// PageURL sets the "page" query parameter of baseURL, keeping any other
// parameters.
func PageURL(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute URL", baseURL)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func dedupKeyFor(keys []string, preferred string) string {
	for _, k := range keys {
		if k == preferred {
			return k
		}
	}
	if len(keys) > 0 {
		return keys[0]
	}
	return preferred
}
