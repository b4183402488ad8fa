package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/smukkama/riskwatch/pkg/config"
)

const anthropicBaseURL = "https://api.anthropic.com/v1/messages"

// anthropicInvoker calls the Anthropic messages API
type anthropicInvoker struct {
	apiKey string
	model  string
	client *http.Client
}

func newAnthropic(cfg config.LLMConfig, client *http.Client) *anthropicInvoker {
	return &anthropicInvoker{
		apiKey: cfg.AnthropicAPIKey,
		model:  cfg.AnthropicModel,
		client: client,
	}
}

func (a *anthropicInvoker) Provider() string { return "anthropic" }

func (a *anthropicInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      a.model,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", nil
	}

	return parsed.Content[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
