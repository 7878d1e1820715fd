package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/scrapeconsole/models"
)

// fakeView records everything the controller does to it.
type fakeView struct {
	form            Form
	alerts          []string
	status          string
	startEnabled    bool
	downloadEnabled bool
	log             []string
	mounted         []*fakeWidget
}

type fakeWidget struct {
	table     Table
	destroyed bool
}

func (w *fakeWidget) Destroy() { w.destroyed = true }

func (v *fakeView) Form() Form { return v.form }
func (v *fakeView) Alert(msg string) { v.alerts = append(v.alerts, msg) }
func (v *fakeView) SetStatus(s string) { v.status = s }
func (v *fakeView) SetStartEnabled(on bool) { v.startEnabled = on }
func (v *fakeView) SetDownloadEnabled(on bool) { v.downloadEnabled = on }
func (v *fakeView) ClearLog() { v.log = nil }
func (v *fakeView) AppendLog(line string) { v.log = append(v.log, line) }
func (v *fakeView) MountTable(t Table) TableWidget {
	w := &fakeWidget{table: t}
	v.mounted = append(v.mounted, w)
	return w
}

func (v *fakeView) current() *fakeWidget {
	if len(v.mounted) == 0 {
		return nil
	}
	return v.mounted[len(v.mounted)-1]
}

type fakeScraper struct {
	records []models.Record
	err     error
	calls   []models.ScrapeRequest
}

func (f *fakeScraper) Scrape(_ context.Context, r models.ScrapeRequest) ([]models.Record, error) {
	f.calls = append(f.calls, r)
	return f.records, f.err
}

type fakeSubscription struct {
	lines  chan string
	closed bool
}

func (s *fakeSubscription) Lines() <-chan string { return s.lines }
func (s *fakeSubscription) Close() error { s.closed = true; return nil }

type fakeLogs struct {
	sub *fakeSubscription
	err error
}

func (f *fakeLogs) OpenLogStream(context.Context) (LogSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type fakeNavigator struct{ targets []string }

func (n *fakeNavigator) Navigate(_ context.Context, target string) error {
	n.targets = append(n.targets, target)
	return nil
}

func validForm() Form {
	return Form{
		BaseURL:      "https://venues.example.com/list",
		CSSSelector:  "div.venue",
		RequiredKeys: "name, city",
		MaxPages:     "5",
	}
}

func newTestController(t *testing.T, form Form, s *fakeScraper) (*Controller, *fakeView) {
	t.Helper()
	v := &fakeView{form: form}
	c := NewController(Options{View: v, Scraper: s, DownloadURL: "http://localhost:5000/download"})
	if err := c.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c, v
}

func TestOpenSetsIdle(t *testing.T) {
	_, v := newTestController(t, validForm(), &fakeScraper{})
	if !v.startEnabled || v.downloadEnabled {
		t.Errorf("got start %v download %v, want start enabled and download disabled", v.startEnabled, v.downloadEnabled)
	}
}

func TestStartWithMissingFields(t *testing.T) {
	forms := []Form{
		{BaseURL: "", CSSSelector: "div", RequiredKeys: "name"},
		{BaseURL: "https://a.example", CSSSelector: "  ", RequiredKeys: "name"},
		{BaseURL: "https://a.example", CSSSelector: "div", RequiredKeys: " \t"},
		{BaseURL: " ", CSSSelector: "", RequiredKeys: ""},
	}
	for i, f := range forms {
		s := &fakeScraper{}
		c, v := newTestController(t, f, s)

		if task := c.Start(); task != nil {
			t.Errorf("form %d: expected no task", i)
		}
		if len(s.calls) != 0 {
			t.Errorf("form %d: request issued", i)
		}
		if !v.startEnabled {
			t.Errorf("form %d: start should stay enabled", i)
		}
		if len(v.alerts) != 1 || v.alerts[0] != AlertMissingFields {
			t.Errorf("form %d: got alerts %q", i, v.alerts)
		}
		if v.status != "" || c.State().Phase != PhaseIdle {
			t.Errorf("form %d: state changed to %q/%v", i, v.status, c.State().Phase)
		}
	}
}

func TestStartEntersRunning(t *testing.T) {
	c, v := newTestController(t, validForm(), &fakeScraper{})
	v.log = []string{"old line"}

	task := c.Start()
	if task == nil {
		t.Fatal("expected a task")
	}
	if v.status != StatusRunning || v.startEnabled || len(v.log) != 0 {
		t.Errorf("got status %q start %v log %q", v.status, v.startEnabled, v.log)
	}
	want := models.ScrapeRequest{
		BaseURL:      "https://venues.example.com/list",
		CSSSelector:  "div.venue",
		RequiredKeys: []string{"name", "city"},
		MaxPages:     5,
	}
	if task.Request.BaseURL != want.BaseURL || task.Request.CSSSelector != want.CSSSelector ||
		strings.Join(task.Request.RequiredKeys, "|") != "name|city" || task.Request.MaxPages != 5 {
		t.Errorf("got %+v, want %+v", task.Request, want)
	}

	if again := c.Start(); again != nil {
		t.Error("a second Start while running should be ignored")
	}
}

func TestRunSuccess(t *testing.T) {
	s := &fakeScraper{records: []models.Record{
		{"name": "A"},
		{"name": "B", "city": "X"},
	}}
	c, v := newTestController(t, validForm(), s)

	o := c.Run(context.Background())
	if o == nil || o.Err != nil {
		t.Fatalf("got %+v", o)
	}

	if !strings.Contains(v.status, "2") || v.status != StatusComplete(2) {
		t.Errorf("status: got %q", v.status)
	}
	if !v.startEnabled || !v.downloadEnabled {
		t.Errorf("got start %v download %v, want both enabled", v.startEnabled, v.downloadEnabled)
	}

	w := v.current()
	if w == nil {
		t.Fatal("no table mounted")
	}
	if strings.Join(w.table.Headers, ",") != "Name,City" {
		t.Errorf("headers: got %q", w.table.Headers)
	}
	if len(w.table.Rows) != 2 || w.table.Rows[0][1] != "" || w.table.Rows[1][1] != "X" {
		t.Errorf("rows: got %q", w.table.Rows)
	}

	st := c.State()
	if st.Phase != PhaseResults || st.StartDisabled || st.DownloadDisabled || st.Table == nil {
		t.Errorf("state: got %+v", st)
	}
}

func TestRunTwiceReplacesTable(t *testing.T) {
	s := &fakeScraper{records: []models.Record{{"name": "A", "city": "X"}}}
	c, v := newTestController(t, validForm(), s)
	c.Run(context.Background())
	first := v.current()

	v.form.RequiredKeys = "price,rating"
	s.records = []models.Record{{"price": "10", "rating": 4.5}}
	c.Run(context.Background())
	second := v.current()

	if first == second || !first.destroyed {
		t.Error("previous widget should be destroyed before remounting")
	}
	if second.destroyed {
		t.Error("current widget should be live")
	}
	if got := strings.Join(second.table.Headers, ","); got != "Price,Rating" {
		t.Errorf("headers: got %q, want only the second key set", got)
	}
	if got := strings.Join(second.table.Rows[0], ","); got != "10,4.5" {
		t.Errorf("row: got %q", got)
	}
	if got := strings.Join(c.State().Table.Keys, ","); got != "price,rating" {
		t.Errorf("state keys: got %q", got)
	}
}

func TestRunFailure(t *testing.T) {
	s := &fakeScraper{err: &APIError{StatusCode: 500, Code: "SCRAPE_FAILED", Message: "An error occurred during scraping"}}
	c, v := newTestController(t, validForm(), s)

	o := c.Run(context.Background())
	if o == nil || o.Err == nil {
		t.Fatal("expected a failed outcome")
	}
	if v.status != StatusError {
		t.Errorf("status: got %q, want %q", v.status, StatusError)
	}
	if !v.startEnabled || v.downloadEnabled {
		t.Errorf("got start %v download %v, want start enabled and download disabled", v.startEnabled, v.downloadEnabled)
	}
	if len(v.mounted) != 0 {
		t.Error("failure should not touch the table")
	}
	if c.State().Phase != PhaseError {
		t.Errorf("phase: got %v", c.State().Phase)
	}
}

func TestFailureKeepsPreviousResults(t *testing.T) {
	s := &fakeScraper{records: []models.Record{{"name": "A", "city": "X"}}}
	c, v := newTestController(t, validForm(), s)
	c.Run(context.Background())
	table := v.current()

	s.err = errors.New("connection refused")
	c.Run(context.Background())

	if table.destroyed || v.current() != table {
		t.Error("previous table should survive a failed job")
	}
	if !v.downloadEnabled {
		t.Error("download state should be left unchanged")
	}
}

func TestMaxPagesCapturedOnce(t *testing.T) {
	s := &fakeScraper{}
	c, v := newTestController(t, validForm(), s)

	v.form.MaxPages = "42"
	c.Run(context.Background())
	if len(s.calls) != 1 || s.calls[0].MaxPages != 5 {
		t.Errorf("got %+v, want max_pages 5 from open time", s.calls)
	}
	if c.MaxPages() != 5 {
		t.Errorf("MaxPages: got %d", c.MaxPages())
	}

	form := validForm()
	form.MaxPages = "lots"
	c2, _ := newTestController(t, form, s)
	c2.Run(context.Background())
	if s.calls[1].MaxPages != 0 {
		t.Errorf("unparsable limit: got %d, want 0 (omitted)", s.calls[1].MaxPages)
	}
}

func TestLogLinesAppendedVerbatim(t *testing.T) {
	sub := &fakeSubscription{lines: make(chan string, 3)}
	v := &fakeView{form: validForm()}
	c := NewController(Options{View: v, Scraper: &fakeScraper{}, Logs: &fakeLogs{sub: sub}})
	if err := c.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	in := []string{"[INFO] one", "<script>alert(1)</script>", "[DONE] & done"}
	for _, l := range in {
		sub.lines <- l
	}
	close(sub.lines)
	for line := range c.Logs() {
		c.AppendLog(line)
	}

	if len(v.log) != len(in) {
		t.Fatalf("got %d entries, want %d", len(v.log), len(in))
	}
	for i := range in {
		if v.log[i] != in[i] {
			t.Errorf("entry %d: got %q, want %q", i, v.log[i], in[i])
		}
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !sub.closed {
		t.Error("Close should end the subscription")
	}
}

func TestOpenWithoutLogStream(t *testing.T) {
	v := &fakeView{form: validForm()}
	c := NewController(Options{View: v, Scraper: &fakeScraper{}, Logs: &fakeLogs{err: errors.New("refused")}})
	if err := c.Open(context.Background()); err == nil {
		t.Error("expected the stream error")
	}
	if c.Logs() != nil {
		t.Error("no subscription should give a nil channel")
	}
	if o := c.Run(context.Background()); o == nil || o.Err != nil {
		t.Error("the controller should still run jobs")
	}
}

func TestDownload(t *testing.T) {
	nav := &fakeNavigator{}
	v := &fakeView{form: validForm()}
	c := NewController(Options{View: v, Scraper: &fakeScraper{}, Navigator: nav, DownloadURL: "http://localhost:5000/download"})
	if err := c.Download(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nav.targets) != 1 || nav.targets[0] != "http://localhost:5000/download" {
		t.Errorf("got %q", nav.targets)
	}

	if err := NewController(Options{View: v}).Download(context.Background()); err == nil {
		t.Error("expected error without a navigator")
	}
}
