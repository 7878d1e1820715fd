package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/scrapeconsole/models"
)

// Status lines shown by the controller.
const (
	StatusRunning = "Scraping in progress..."
	StatusError   = "Error during scraping."
)

// StatusComplete is the status after a successful job.
func StatusComplete(n int) string {
	return fmt.Sprintf("Scraping complete. %d venues found.", n)
}

// Phase is the controller's position in its state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseResults // idle, showing the last successful result
	PhaseError   // idle after a failed job
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseResults:
		return "idle-with-results"
	case PhaseError:
		return "idle-error"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a snapshot of the UI state.
type State struct {
	Phase            Phase
	Status           string
	StartDisabled    bool
	DownloadDisabled bool

	// Table is the currently mounted result set, or nil.
	Table *Table
}

// Scraper runs a scrape job. *Client implements it.
type Scraper interface {
	Scrape(ctx context.Context, r models.ScrapeRequest) ([]models.Record, error)
}

// Options wires a Controller. Logs and Navigator may be nil.
type Options struct {
	View        View
	Scraper     Scraper
	Logs        LogSubscriber
	Navigator   Navigator
	DownloadURL string
	Logger      *slog.Logger // developer diagnostics; defaults to slog.Default()
}

// Controller owns the console's UI state. It is not safe for concurrent
// use: every method except Task.Do must run on the event loop.
type Controller struct {
	view        View
	scraper     Scraper
	logs        LogSubscriber
	nav         Navigator
	downloadURL string
	logger      *slog.Logger

	// maxPages is read from the form once, in Open.
	maxPages int

	sub    LogSubscription
	widget TableWidget
	state  State
}

// NewController creates a Controller. Call Open before use.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		view:        opts.View,
		scraper:     opts.Scraper,
		logs:        opts.Logs,
		nav:         opts.Navigator,
		downloadURL: opts.DownloadURL,
		logger:      logger,
		state:       State{Phase: PhaseIdle, DownloadDisabled: true},
	}
}

// Open puts the view in the idle state, captures the page limit and
// subscribes to the log stream.
//
// The page limit is read here and never again, so editing it later has
// no effect until the console is reopened. A limit that is not a number is
// left out of requests and the server default applies.
func (c *Controller) Open(ctx context.Context) error {
	if n, ok := ParseMaxPages(c.view.Form().MaxPages); ok {
		c.maxPages = n
	}
	c.view.SetStartEnabled(true)
	c.view.SetDownloadEnabled(false)

	if c.logs == nil {
		return nil
	}
	sub, err := c.logs.OpenLogStream(ctx)
	if err != nil {
		c.logger.Error("log stream unavailable", "error", err)
		return err
	}
	c.sub = sub
	return nil
}

// MaxPages returns the page limit captured by Open.
func (c *Controller) MaxPages() int { return c.maxPages }

// Logs returns the log line channel, or nil without a subscription.
func (c *Controller) Logs() <-chan string {
	if c.sub == nil {
		return nil
	}
	return c.sub.Lines()
}

// AppendLog shows one received log line.
func (c *Controller) AppendLog(line string) {
	c.view.AppendLog(line)
}

// Task is one dispatched scrape. Do runs it off the event loop and Finish
// applies its outcome back on it.
type Task struct {
	Request models.ScrapeRequest
	scraper Scraper
}

// Outcome is the result of a Task.
type Outcome struct {
	Keys    []string
	Records []models.Record
	Err     error
}

// Do sends the scrape request and waits for the job to finish. It touches
// no controller state.
func (t *Task) Do(ctx context.Context) Outcome {
	records, err := t.scraper.Scrape(ctx, t.Request)
	return Outcome{Keys: t.Request.RequiredKeys, Records: records, Err: err}
}

// Start validates the form and enters the running state. It returns nil
// when the form is incomplete (after alerting) or a job is already running.
//
// The download control is left as it is: the previous export stays
// downloadable while a new job runs.
func (c *Controller) Start() *Task {
	if c.state.StartDisabled {
		return nil
	}
	req, err := c.view.Form().Request(c.maxPages)
	if err != nil {
		c.view.Alert(AlertMissingFields)
		return nil
	}

	c.setStatus(StatusRunning)
	c.setStartEnabled(false)
	c.view.ClearLog()
	c.state.Phase = PhaseRunning

	return &Task{Request: req, scraper: c.scraper}
}

// Finish applies a task outcome. On success the table is rebuilt from
// scratch; on failure the previous table and download state are kept and
// the error goes to the diagnostic log only.
func (c *Controller) Finish(o Outcome) {
	if o.Err != nil {
		c.logger.Error("scrape request failed", "error", o.Err)
		c.setStatus(StatusError)
		c.setStartEnabled(true)
		c.state.Phase = PhaseError
		return
	}

	c.renderTable(o.Keys, o.Records)
	c.setStatus(StatusComplete(len(o.Records)))
	c.setDownloadEnabled(true)
	c.setStartEnabled(true)
	c.state.Phase = PhaseResults
}

// Run is Start, Do and Finish in one call. It returns the outcome, or nil
// when nothing was dispatched.
func (c *Controller) Run(ctx context.Context) *Outcome {
	task := c.Start()
	if task == nil {
		return nil
	}
	o := task.Do(ctx)
	c.Finish(o)
	return &o
}

// Download navigates to the export endpoint.
func (c *Controller) Download(ctx context.Context) error {
	if c.nav == nil {
		return fmt.Errorf("console: no navigator configured")
	}
	return c.nav.Navigate(ctx, c.downloadURL)
}

// State returns a snapshot of the UI state.
func (c *Controller) State() State {
	s := c.state
	if s.Table != nil {
		t := *s.Table
		s.Table = &t
	}
	return s
}

// Close destroys the table widget and ends the log subscription.
func (c *Controller) Close() error {
	if c.widget != nil {
		c.widget.Destroy()
		c.widget = nil
	}
	if c.sub != nil {
		err := c.sub.Close()
		c.sub = nil
		return err
	}
	return nil
}

func (c *Controller) renderTable(keys []string, records []models.Record) {
	if c.widget != nil {
		c.widget.Destroy()
		c.widget = nil
	}
	t := BuildTable(keys, records)
	c.widget = c.view.MountTable(t)
	c.state.Table = &t
}

func (c *Controller) setStatus(s string) {
	c.state.Status = s
	c.view.SetStatus(s)
}

func (c *Controller) setStartEnabled(on bool) {
	c.state.StartDisabled = !on
	c.view.SetStartEnabled(on)
}

func (c *Controller) setDownloadEnabled(on bool) {
	c.state.DownloadDisabled = !on
	c.view.SetDownloadEnabled(on)
}
