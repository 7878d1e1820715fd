package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/use-agent/scrapeconsole/console"
	"github.com/use-agent/scrapeconsole/models"
)

// CLI flags
var (
	apiURL  = flag.String("api-url", "http://localhost:5000", "scrapeconsole API base URL")
	apiKey  = flag.String("api-key", "", "API key for authenticated requests")
	targets = flag.String("targets", "benchmark-targets.toml", "TOML file listing the listings to scrape")
	runs    = flag.Int("runs", 3, "Number of runs per target for averaging")
	output  = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// target is one listing from the targets file:
//
//	[[target]]
//	label = "Berlin halls"
//	base_url = "https://venues.example.com/berlin"
//	css_selector = "div.venue"
//	required_keys = ["name", "location", "price"]
//	max_pages = 5
type target struct {
	Label        string   `toml:"label"`
	BaseURL      string   `toml:"base_url"`
	CSSSelector  string   `toml:"css_selector"`
	RequiredKeys []string `toml:"required_keys"`
	MaxPages     int      `toml:"max_pages"`
}

type targetsFile struct {
	Targets []target `toml:"target"`
}

// --- Benchmark result types ---

type runResult struct {
	Run     int    `json:"run"`
	TotalMs int64  `json:"total_ms"`
	Pages   int    `json:"pages"`
	Venues  int    `json:"venues"`
	Skipped int    `json:"skipped"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type targetAverages struct {
	TotalMs   float64 `json:"total_ms"`
	MsPerPage float64 `json:"ms_per_page"`
	Pages     float64 `json:"pages"`
	Venues    float64 `json:"venues"`
}

type targetResult struct {
	Label    string          `json:"label"`
	BaseURL  string          `json:"base_url"`
	Runs     []runResult     `json:"runs"`
	Averages *targetAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string         `json:"timestamp"`
	APIURL     string         `json:"api_url"`
	RunsPerURL int            `json:"runs_per_target"`
	Results    []targetResult `json:"results"`
}

// lineCounter tallies job log lines by tag while a run is in flight.
type lineCounter struct {
	pages   atomic.Int64
	skipped atomic.Int64
}

func (c *lineCounter) reset() {
	c.pages.Store(0)
	c.skipped.Store(0)
}

func (c *lineCounter) observe(line string) {
	switch {
	case strings.HasPrefix(line, "[LOAD]"):
		c.pages.Add(1)
	case strings.HasPrefix(line, "[SKIP]"):
		c.skipped.Add(1)
	}
}

func main() {
	flag.Parse()

	fmt.Println("=== scrapeconsole Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Targets:   %s\n", *targets)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	list, err := loadTargets(*targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := console.NewClient(*apiURL, *apiKey)

	// Pages and skips are read off the live log stream.
	counter := &lineCounter{}
	sub, err := client.OpenLogStream(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the server is running (go run ./cmd/scrapeconsole)\n")
		os.Exit(1)
	}
	defer sub.Close()
	go func() {
		for line := range sub.Lines() {
			counter.observe(line)
		}
	}()

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range list {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.BaseURL)
		tr := targetResult{Label: t.Label, BaseURL: t.BaseURL}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkTarget(ctx, client, counter, t, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d pages  %d venues\n", rr.TotalMs, rr.Pages, rr.Venues)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			tr.Runs = append(tr.Runs, rr)
		}

		tr.Averages = computeAverages(tr.Runs)
		report.Results = append(report.Results, tr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	var f targetsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets: %w", err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("%s lists no [[target]] entries", path)
	}
	return f.Targets, nil
}

func benchmarkTarget(ctx context.Context, client *console.Client, counter *lineCounter, t target, run int) runResult {
	rr := runResult{Run: run}
	req := models.ScrapeRequest{
		BaseURL:      t.BaseURL,
		CSSSelector:  t.CSSSelector,
		RequiredKeys: t.RequiredKeys,
		MaxPages:     models.PageLimit(t.MaxPages),
	}

	counter.reset()
	start := time.Now()
	records, err := client.Scrape(ctx, req)
	rr.TotalMs = time.Since(start).Milliseconds()

	// Let the stream catch up with the job's last lines.
	time.Sleep(200 * time.Millisecond)
	rr.Pages = int(counter.pages.Load())
	rr.Skipped = int(counter.skipped.Load())

	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.Success = true
	rr.Venues = len(records)
	return rr
}

func computeAverages(runs []runResult) *targetAverages {
	var successCount int
	var avg targetAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Pages += float64(r.Pages)
		avg.Venues += float64(r.Venues)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Pages /= n
	avg.Venues /= n
	if avg.Pages > 0 {
		avg.MsPerPage = avg.TotalMs / avg.Pages
	}
	return &avg
}

func printTable(results []targetResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Target\tAvg Latency\tPer Page\tPages\tVenues\n")
	fmt.Fprintf(w, "──────\t───────────\t────────\t─────\t──────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncate(r.Label, 40))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.1f\t%.1f\n",
			truncate(r.Label, 40),
			int64(r.Averages.TotalMs),
			int64(r.Averages.MsPerPage),
			r.Averages.Pages,
			r.Averages.Venues,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
