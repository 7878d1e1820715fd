package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyOptions configures a CollyEngine.
type CollyOptions struct {
	UserAgent        string
	Timeout          time.Duration
	RespectRobotsTxt bool

	// Transport overrides colly's default transport. Used in tests.
	Transport http.RoundTripper
}

// CollyEngine fetches through a colly collector. Unlike HTTPEngine it can
// honour robots.txt and uses the stock Go TLS stack, which some servers
// treat better than a spoofed fingerprint.
type CollyEngine struct {
	opts CollyOptions
}

// NewCollyEngine creates a CollyEngine.
func NewCollyEngine(opts CollyOptions) *CollyEngine {
	return &CollyEngine{opts: opts}
}

func (e *CollyEngine) Name() string { return "colly" }

// Fetch builds a fresh collector per call; collectors remember visited URLs.
func (e *CollyEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	c := colly.NewCollector(
		colly.UserAgent(e.opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = !e.opts.RespectRobotsTxt

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.opts.Timeout
	}
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	if e.opts.Transport != nil {
		c.WithTransport(e.opts.Transport)
	}

	var (
		result   *FetchResult
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range req.Headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		ct := r.Headers.Get("Content-Type")
		if !isHTMLContentType(ct) {
			fetchErr = fmt.Errorf("colly_engine: non-html content-type %q", ct)
			return
		}
		page := string(r.Body)
		result = &FetchResult{
			HTML:       page,
			Title:      extractTitle(page),
			StatusCode: r.StatusCode,
			FinalURL:   r.Request.URL.String(),
			EngineName: e.Name(),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("colly_engine: status %d: %w", r.StatusCode, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("colly_engine: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, fmt.Errorf("colly_engine: visit: %w", err)
		}
	}

	if result == nil {
		return nil, fmt.Errorf("colly_engine: no response for %s", req.URL)
	}
	return result, nil
}
