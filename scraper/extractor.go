package scraper

import (
	"context"
	"net/url"
	"time"

	"github.com/use-agent/scrapeconsole/cleaner"
	"github.com/use-agent/scrapeconsole/llm"
	"github.com/use-agent/scrapeconsole/models"
)

// Page is one fetched listing page after CSS selection.
type Page struct {
	Number int
	URL    string
	Blocks []string // outer HTML of each selected venue block
}

// Extractor turns the venue blocks of a page into raw records keyed by the
// required keys. Records may be incomplete; the job filters them.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, page *Page, keys []string) ([]models.Record, error)
}

// DOMExtractor reads fields straight from the block markup, one record per
// block. It needs no external service.
type DOMExtractor struct{}

func (DOMExtractor) Name() string { return "dom" }

func (DOMExtractor) Extract(_ context.Context, page *Page, keys []string) ([]models.Record, error) {
	records := make([]models.Record, 0, len(page.Blocks))
	for _, block := range page.Blocks {
		rec, err := cleaner.ExtractFields(block, keys, page.URL)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LLMExtractor sends the blocks as Markdown to a chat completions model.
type LLMExtractor struct {
	Client   *llm.Client
	Cleaner  *cleaner.Cleaner
	Params   llm.Params
	MaxChars int
	Timeout  time.Duration
}

func (e *LLMExtractor) Name() string { return "llm" }

func (e *LLMExtractor) Extract(ctx context.Context, page *Page, keys []string) ([]models.Record, error) {
	domain := ""
	if u, err := url.Parse(page.URL); err == nil {
		domain = u.Host
	}
	content, _, err := e.Cleaner.Prompt(page.Blocks, domain, e.MaxChars)
	if err != nil {
		return nil, err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	records, _, err := e.Client.ExtractRecords(ctx, content, keys, e.Params)
	return records, err
}
