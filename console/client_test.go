package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestClientScrape(t *testing.T) {
	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/scrape" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name":"Grand Hall","capacity":300},{"name":"Loft","capacity":null}]`)
	}))
	defer srv.Close()

	form := validForm()
	req, err := form.Request(5)
	if err != nil {
		t.Fatal(err)
	}
	records, err := NewClient(srv.URL+"/", "k1").Scrape(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if auth != "Bearer k1" {
		t.Errorf("auth: got %q", auth)
	}
	if body["base_url"] != "https://venues.example.com/list" || body["css_selector"] != "div.venue" || body["max_pages"] != float64(5) {
		t.Errorf("payload: got %v", body)
	}
	if keys, _ := body["required_keys"].([]any); len(keys) != 2 || keys[1] != "city" {
		t.Errorf("required_keys: got %v", body["required_keys"])
	}

	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if got := CellText(records[0]["capacity"]); got != "300" {
		t.Errorf("capacity: got %q, want 300", got)
	}
	if got := CellText(records[1]["capacity"]); got != "" {
		t.Errorf("null capacity: got %q, want empty", got)
	}
}

func TestClientScrapeOmitsUnsetMaxPages(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	req, _ := validForm().Request(0)
	records, err := NewClient(srv.URL, "").Scrape(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["max_pages"]; ok {
		t.Error("max_pages should be omitted")
	}
	if records == nil || len(records) != 0 {
		t.Errorf("got %v, want empty slice", records)
	}
}

func TestClientScrapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"structured", 500, `{"error":{"code":"SCRAPE_FAILED","message":"An error occurred during scraping"}}`, "SCRAPE_FAILED", "An error occurred during scraping"},
		{"plain", 400, `{"error":"Missing base_url, css_selector, or required_keys"}`, "", `{"error":"Missing base_url, css_selector, or required_keys"}`},
		{"empty", 502, ``, "", "502 Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			req, _ := validForm().Request(1)
			_, err := NewClient(srv.URL, "").Scrape(context.Background(), req)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("got %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.code || apiErr.Message != tt.message {
				t.Errorf("got %+v", apiErr)
			}
		})
	}

	req, _ := validForm().Request(1)
	if _, err := NewClient("http://127.0.0.1:1", "").Scrape(context.Background(), req); err == nil {
		t.Error("expected transport error")
	}
}

func TestParseEvents(t *testing.T) {
	stream := strings.Join([]string{
		": keep-alive",
		"",
		"data: [INFO] one",
		"",
		"event:message",
		"data:[LOAD] two",
		"",
		"event: ping",
		"data: ignored",
		"",
		"data: multi",
		"data: line",
		"",
		"id: 7",
		"data: <b>bold</b>\r",
		"\r",
		"data: unterminated",
	}, "\n")

	var got []string
	if err := ParseEvents(strings.NewReader(stream), func(d string) bool {
		got = append(got, d)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	want := []string{"[INFO] one", "[LOAD] two", "multi\nline", "<b>bold</b>"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseEventsStops(t *testing.T) {
	n := 0
	ParseEvents(strings.NewReader("data: a\n\ndata: b\n\n"), func(string) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("got %d calls, want 1", n)
	}
}

func TestLogStream(t *testing.T) {
	ready := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept: got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range []string{"[START] go", "[DONE] done"} {
			fmt.Fprintf(w, "event:message\ndata:%s\n\n", l)
		}
		w.(http.Flusher).Flush()
		close(ready)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	sub, err := NewClient(srv.URL, "").OpenLogStream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	<-ready

	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case l := <-sub.Lines():
			got = append(got, l)
		case <-timeout:
			t.Fatalf("timed out with %q", got)
		}
	}
	if got[0] != "[START] go" || got[1] != "[DONE] done" {
		t.Errorf("got %q", got)
	}

	if err := sub.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-sub.Lines(); ok {
		t.Error("Lines should be closed after Close")
	}
	if err := sub.(*LogStream).Err(); err != nil {
		t.Errorf("Err after Close: got %v", err)
	}
}

func TestLogStreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":"UNAUTHORIZED","message":"invalid API key"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad").OpenLogStream(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "UNAUTHORIZED" {
		t.Errorf("got %v", err)
	}
}

func TestDownloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			w.Header().Set("Content-Disposition", `attachment; filename="../complete_venues.csv"`)
			io.WriteString(w, "name\nGrand Hall\n")
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"no export"}}`)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(srv.URL, "")
	d := NewDownloader(c, dir)

	if err := d.Navigate(context.Background(), c.URL("/download")); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "complete_venues.csv")
	if d.Last() != want {
		t.Errorf("saved to %q, want %q", d.Last(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "name\nGrand Hall\n" {
		t.Errorf("got %q, %v", data, err)
	}

	err = d.Navigate(context.Background(), c.URL("/missing"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("got %v, want 404 APIError", err)
	}
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		disposition, target, want string
	}{
		{`attachment; filename="venues.csv"`, "http://h/download", "venues.csv"},
		{`attachment; filename="/etc/passwd"`, "http://h/download", "passwd"},
		{``, "http://h/files/export.csv", "export.csv"},
		{`inline`, "http://h/", "download"},
	}
	for _, tt := range tests {
		if got := attachmentName(tt.disposition, tt.target); got != tt.want {
			t.Errorf("attachmentName(%q, %q) = %q, want %q", tt.disposition, tt.target, got, tt.want)
		}
	}
}
