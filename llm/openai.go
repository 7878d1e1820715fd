// Package llm extracts venue records from page Markdown with an
// OpenAI-compatible chat completions API (Groq by default).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/scrapeconsole/models"
)

// Client is a lightweight OpenAI-compatible API client.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new LLM client. Pass nil to use a default http.Client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

// Params holds the provider settings for one extraction.
type Params struct {
	APIKey  string
	Model   string
	BaseURL string // e.g. "https://api.groq.com/openai/v1"
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ExtractRecords asks the model for every venue in content, each carrying
// the given keys. Missing values come back as nil.
func (c *Client) ExtractRecords(ctx context.Context, content string, keys []string, params Params) ([]models.Record, *Usage, error) {
	reqBody := chatRequest{
		Model: params.Model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(keys)},
			{Role: "user", Content: content},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(params.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+params.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	records, err := ParseRecords(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned invalid JSON", err)
	}
	usage := chatResp.Usage
	return records, &usage, nil
}

// Schema returns the JSON schema sent to the model: an object whose "items"
// array holds one object per venue, every key a nullable string.
func Schema(keys []string) json.RawMessage {
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k] = map[string]any{"type": []string{"string", "null"}}
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": props,
				},
			},
		},
		"required": []string{"items"},
	}
	b, _ := json.MarshalIndent(schema, "", "  ")
	return b
}

func buildSystemPrompt(keys []string) string {
	return fmt.Sprintf(`You are a structured data extraction assistant. Extract venue data with the following fields: %s. The content is a list of venue listings in Markdown, separated by horizontal rules.

Return JSON matching this schema:
%s

Rules:
- Return ONLY valid JSON, no markdown fences or explanation.
- One entry in "items" per venue listing.
- If a field cannot be found for a venue, use null.
- Extract exactly the fields specified in the schema.`, strings.Join(keys, ", "), Schema(keys))
}

// ParseRecords decodes the model output. It accepts {"items": [...]}, any
// object holding a single array of objects, a bare array, or a single
// object. Reasoning blocks and Markdown fences around the JSON are ignored.
func ParseRecords(raw string) ([]models.Record, error) {
	raw = stripWrapping(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case []any:
		return toRecords(t), nil
	case map[string]any:
		if items, ok := t["items"].([]any); ok {
			return toRecords(items), nil
		}
		for _, val := range t {
			if arr, ok := val.([]any); ok && len(t) == 1 {
				return toRecords(arr), nil
			}
		}
		return []models.Record{models.Record(t)}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON %T", v)
	}
}

func toRecords(items []any) []models.Record {
	out := make([]models.Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, models.Record(m))
		}
	}
	return out
}

func stripWrapping(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "</think>"); i >= 0 {
		s = strings.TrimSpace(s[i+len("</think>"):])
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// classifyLLMError maps HTTP status codes to error codes.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
