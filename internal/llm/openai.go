package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smukkama/riskwatch/pkg/config"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// openAIInvoker calls the OpenAI chat completions API (or any
// compatible endpoint via OPENAI_BASE_URL)
type openAIInvoker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func newOpenAI(cfg config.LLMConfig, client *http.Client) *openAIInvoker {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &openAIInvoker{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   cfg.OpenAIModel,
		client:  client,
	}
}

func (o *openAIInvoker) Provider() string { return "openai" }

func (o *openAIInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      o.model,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return parsed.Choices[0].Message.Content, nil
}
