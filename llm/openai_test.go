package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/scrapeconsole/models"
)

func TestExtractRecords(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices":[{"message":{"content":"{\"items\":[{\"name\":\"Grand Hall\",\"price\":null},{\"name\":\"Loft\",\"price\":\"900\"}]}"}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	records, usage, err := c.ExtractRecords(context.Background(), "### Grand Hall", []string{"name", "price"},
		Params{APIKey: "k", Model: "m", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer k" || got.Model != "m" || got.ResponseFormat.Type != "json_object" {
		t.Errorf("unexpected request: auth %q model %q", auth, got.Model)
	}
	if len(got.Messages) != 2 || !strings.Contains(got.Messages[0].Content, "name, price") {
		t.Errorf("system prompt should list the keys: %+v", got.Messages)
	}
	if len(records) != 2 || records[0]["name"] != "Grand Hall" || records[0]["price"] != nil || records[1]["price"] != "900" {
		t.Errorf("got %v", records)
	}
	if usage.TotalTokens != 15 {
		t.Errorf("usage: got %d, want 15", usage.TotalTokens)
	}
}

func TestExtractRecordsErrors(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{http.StatusInternalServerError, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":{"message":"nope"}}`))
		}))
		_, _, err := NewClient(nil).ExtractRecords(context.Background(), "x", []string{"name"}, Params{BaseURL: srv.URL})
		srv.Close()

		var se *models.ScrapeError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: got %v, want ScrapeError", tt.status, err)
		}
		if se.Code != tt.code {
			t.Errorf("status %d: got %s, want %s", tt.status, se.Code, tt.code)
		}
	}
}

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"items object", `{"items":[{"name":"a"},{"name":"b"}]}`, 2},
		{"bare array", `[{"name":"a"}]`, 1},
		{"other array key", `{"venues":[{"name":"a"},{"name":"b"},{"name":"c"}]}`, 3},
		{"single object", `{"name":"a","error":false}`, 1},
		{"fenced", "```json\n[{\"name\":\"a\"}]\n```", 1},
		{"reasoning", "<think>look at venues</think>\n{\"items\":[]}", 0},
		{"non-object entries dropped", `[{"name":"a"}, 3, "x"]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecords(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}

	for _, bad := range []string{"", "not json", "42"} {
		if _, err := ParseRecords(bad); err == nil {
			t.Errorf("ParseRecords(%q): expected error", bad)
		}
	}
}

func TestSchemaNullableStrings(t *testing.T) {
	var s struct {
		Properties struct {
			Items struct {
				Items struct {
					Properties map[string]struct {
						Type []string `json:"type"`
					} `json:"properties"`
				} `json:"items"`
			} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(Schema([]string{"name", "rating"}), &s); err != nil {
		t.Fatal(err)
	}
	props := s.Properties.Items.Items.Properties
	if len(props) != 2 || len(props["rating"].Type) != 2 || props["rating"].Type[1] != "null" {
		t.Errorf("got %+v", props)
	}
}
