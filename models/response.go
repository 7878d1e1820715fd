package models

import "time"

// Record is one scraped venue: required key to scalar value.
type Record map[string]any

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string   `json:"status"` // "healthy"
	Uptime      string   `json:"uptime"`
	Version     string   `json:"version"`
	Engines     []string `json:"engines"`
	Subscribers int      `json:"log_subscribers"`
	Extractor   string   `json:"extractor"` // "llm" or "dom"
}

// JobsResponse is the response for GET /jobs.
type JobsResponse struct {
	Jobs  []JobRecord `json:"jobs"`
	Total int         `json:"total"`
}

// Job status values.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobRecord is the history entry written after every scrape job.
type JobRecord struct {
	ID           string    `json:"id"`
	BaseURL      string    `json:"base_url"`
	CSSSelector  string    `json:"css_selector"`
	RequiredKeys []string  `json:"required_keys"`
	MaxPages     int       `json:"max_pages"`
	Status       string    `json:"status"`
	Records      int       `json:"records"`
	Pages        int       `json:"pages"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Duration is how long the job ran.
func (j JobRecord) Duration() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}
