package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPageLimitUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    PageLimit
		wantErr bool
	}{
		{"integer", `{"max_pages": 3}`, 3, false},
		{"wrapped value", `{"max_pages": {"value": 7}}`, 7, false},
		{"numeric string", `{"max_pages": " 4 "}`, 4, false},
		{"float truncates", `{"max_pages": 2.9}`, 2, false},
		{"null keeps zero", `{"max_pages": null}`, 0, false},
		{"missing keeps zero", `{}`, 0, false},
		{"empty wrapper", `{"max_pages": {}}`, 0, false},
		{"bad string", `{"max_pages": "many"}`, 0, true},
		{"bad type", `{"max_pages": [1]}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ScrapeRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got max_pages=%d", req.MaxPages)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.MaxPages != tt.want {
				t.Errorf("got %d, want %d", req.MaxPages, tt.want)
			}
		})
	}
}

func TestScrapeRequestDefaults(t *testing.T) {
	tests := []struct {
		name  string
		in    PageLimit
		limit int
		want  PageLimit
	}{
		{"unset uses default", 0, 50, DefaultMaxPages},
		{"kept under cap", 5, 50, 5},
		{"capped", 80, 50, 50},
		{"no cap", 80, 0, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ScrapeRequest{MaxPages: tt.in}
			req.Defaults(tt.limit)
			if req.MaxPages != tt.want {
				t.Errorf("got %d, want %d", req.MaxPages, tt.want)
			}
		})
	}
}

func TestScrapeRequestValidate(t *testing.T) {
	valid := func() ScrapeRequest {
		return ScrapeRequest{
			BaseURL:      " https://venues.example.com/list ",
			CSSSelector:  " div.venue ",
			RequiredKeys: []string{" name", "", "city "},
			MaxPages:     2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *ScrapeRequest)
		wantErr bool
	}{
		{"valid", func(r *ScrapeRequest) {}, false},
		{"blank url", func(r *ScrapeRequest) { r.BaseURL = "  " }, true},
		{"blank selector", func(r *ScrapeRequest) { r.CSSSelector = "" }, true},
		{"only blank keys", func(r *ScrapeRequest) { r.RequiredKeys = []string{" ", ""} }, true},
		{"relative url", func(r *ScrapeRequest) { r.BaseURL = "/venues" }, true},
		{"ftp url", func(r *ScrapeRequest) { r.BaseURL = "ftp://example.com" }, true},
		{"negative pages", func(r *ScrapeRequest) { r.MaxPages = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			req.Normalize()
			err := req.Validate()
			if tt.wantErr {
				var se *ScrapeError
				if !errors.As(err, &se) || se.Code != ErrCodeInvalidInput {
					t.Fatalf("got %v, want %s", err, ErrCodeInvalidInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	req := valid()
	req.Normalize()
	if req.BaseURL != "https://venues.example.com/list" || req.CSSSelector != "div.venue" {
		t.Errorf("fields not trimmed: %+v", req)
	}
	if len(req.RequiredKeys) != 2 || req.RequiredKeys[0] != "name" || req.RequiredKeys[1] != "city" {
		t.Errorf("got keys %v, want [name city]", req.RequiredKeys)
	}
}
