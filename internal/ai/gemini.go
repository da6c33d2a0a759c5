package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CoherenceResult is the outcome of the text/direction coherence check.
// QuotaExceeded is reported separately so callers can surface a retryable
// condition instead of rejecting the prediction.
type CoherenceResult struct {
	Match         bool
	QuotaExceeded bool
}

// Client is a thin wrapper over the Gemini generateContent REST endpoint.
// It exposes exactly the two capabilities the prediction engine needs.
type Client struct {
	host       string
	apiKey     string
	model      string
	httpClient *http.Client
}

type QuotaError struct {
	Body string
}

func (e *QuotaError) Error() string {
	return "gemini quota exceeded: " + e.Body
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey, model string) *Client {
	if host == "" {
		host = "https://generativelanguage.googleapis.com"
	}
	host = strings.TrimRight(host, "/")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		host:       host,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends a single-turn prompt and returns the raw text of the
// first candidate. HTTP 429 is mapped to *QuotaError.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.host, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &QuotaError{Body: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

const coherencePromptTemplate = `
You are a strict AI prediction validator. Given a market direction and a prediction text, determine if the text *clearly and directly* supports the specified direction:

- If the direction is "positive", the text must indicate confidence in upward movement, growth, bullish momentum, or optimism.
- If the direction is "negative", the text must indicate expectation of decline, drop, bearish trend, or pessimism.
- Do NOT accept vague, neutral, or unrelated explanations.
- If the text does not clearly support the direction, or contradicts it in any way, return "false".

Respond with only one word: "true" or "false" (lowercase, no punctuation).

Direction: %s
Text: %s
`

// CoherenceCheck asks the model whether the reasoning text supports the
// stated direction. Quota exhaustion is reported via the result, not as an
// error; any other transport or model failure is returned as an error so the
// caller can apply its own fail-closed policy.
func (c *Client) CoherenceCheck(ctx context.Context, direction, text string) (CoherenceResult, error) {
	prompt := fmt.Sprintf(coherencePromptTemplate, direction, text)
	raw, err := c.GenerateContent(ctx, prompt)
	if err != nil {
		var quotaErr *QuotaError
		if errors.As(err, &quotaErr) {
			return CoherenceResult{QuotaExceeded: true}, nil
		}
		return CoherenceResult{}, err
	}
	answer := strings.ToLower(strings.TrimSpace(raw))
	return CoherenceResult{Match: answer == "true"}, nil
}
