// Package llm provides the pluggable inference backend used by the
// analysis stages. The concrete adapters (anthropic, openai, ollama) all
// reduce to a single Invoke(prompt) -> text call; when no backend is
// configured the stages use their deterministic rule-based fallbacks.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/pkg/config"
)

// Invoker sends one prompt to an inference backend and returns its raw
// text response. Implementations must be safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// New selects an inference backend from the config. It returns nil when
// no usable backend is configured: callers treat nil as "use the
// deterministic fallback". Selection happens once per process.
func New(cfg config.LLMConfig) Invoker {
	client := &http.Client{Timeout: cfg.InvokeTimeout}

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			fmt.Printf("LLM backend: openai model=%s\n", cfg.OpenAIModel)
			return withLogging(newOpenAI(cfg, client))
		}
	case "ollama":
		fmt.Printf("LLM backend: ollama model=%s base=%s\n", cfg.OllamaModel, cfg.OllamaBaseURL)
		return withLogging(newOllama(cfg, client))
	}

	// Default provider order: anthropic, then openai if only its key is set.
	if cfg.AnthropicAPIKey != "" {
		fmt.Printf("LLM backend: anthropic model=%s\n", cfg.AnthropicModel)
		return withLogging(newAnthropic(cfg, client))
	}
	if cfg.OpenAIAPIKey != "" {
		fmt.Printf("LLM backend: openai (fallback) model=%s\n", cfg.OpenAIModel)
		return withLogging(newOpenAI(cfg, client))
	}

	fmt.Println("No LLM credentials found, using rule-based fallbacks")
	return nil
}

// loggingInvoker wraps a backend with per-call logging
type loggingInvoker struct {
	backend Invoker
}

func withLogging(backend Invoker) Invoker {
	return &loggingInvoker{backend: backend}
}

func (l *loggingInvoker) Provider() string {
	return l.backend.Provider()
}

func (l *loggingInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	callID := uuid.NewString()[:8]
	start := time.Now()
	fmt.Printf("LLM request id=%s provider=%s prompt_len=%d\n",
		callID, l.backend.Provider(), len(prompt))

	response, err := l.backend.Invoke(ctx, prompt)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		fmt.Printf("LLM error id=%s provider=%s elapsed_ms=%d: %v\n",
			callID, l.backend.Provider(), elapsed, err)
		return "", err
	}

	fmt.Printf("LLM response id=%s provider=%s elapsed_ms=%d response_len=%d\n",
		callID, l.backend.Provider(), elapsed, len(response))
	return response, nil
}
