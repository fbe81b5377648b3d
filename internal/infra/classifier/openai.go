package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"reflectio/internal/domain/moderation"
)

// OpenAI calls an OpenAI-compatible /v1/moderations endpoint.
type OpenAI struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

func NewOpenAI(httpClient *http.Client, endpoint, apiKey, model string) *OpenAI {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &OpenAI{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

type moderationRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Classify sends text to the classifier and returns its verdict.
func (c *OpenAI) Classify(ctx context.Context, text string) (moderation.Verdict, error) {
	body, err := json.Marshal(moderationRequest{Model: c.model, Input: text})
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("classifier: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("classifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return moderation.Verdict{}, fmt.Errorf("classifier: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return moderation.Verdict{}, fmt.Errorf("classifier: decode response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return moderation.Verdict{}, fmt.Errorf("classifier: empty results")
	}

	r := decoded.Results[0]
	v := moderation.Verdict{
		Flagged:    r.Flagged,
		Categories: []string{},
		Scores:     r.CategoryScores,
	}
	for name, hit := range r.Categories {
		if hit {
			v.Categories = append(v.Categories, name)
		}
	}
	sort.Strings(v.Categories)
	return v, nil
}
