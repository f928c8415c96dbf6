// Package agents composes the pipeline stages into the three user-facing
// workflows: failure debugging, NL-to-SQL, and quality-check suggestion.
package agents

import (
	"context"
	"fmt"
	"log"

	"pipewise/internal/config"
	"pipewise/internal/llm"
)

// NewClient builds the configured model backend and wraps it with the
// standard middleware chain. Close the returned client when done.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *log.Logger) (llm.Client, error) {
	var base llm.Client
	switch cfg.Provider {
	case "ollama":
		base = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Timeout)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("agents: ANTHROPIC_API_KEY is required for provider anthropic")
		}
		base = llm.NewAnthropicClient(cfg.AnthropicModel, 0)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("agents: GEMINI_API_KEY is required for provider gemini")
		}
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		base = g
	case "fake":
		base = &llm.FakeClient{}
	default:
		return nil, fmt.Errorf("agents: unknown LLM provider %q", cfg.Provider)
	}

	mws := []llm.Middleware{
		llm.WithLogging(logger),
		llm.WithCache(cfg.CacheSize),
		llm.Retry(cfg.MaxAttempts, 0),
		llm.WithHooks(),
	}
	if cfg.RPS > 0 {
		mws = append(mws, llm.RateLimit(float64(cfg.RPS), cfg.RPS))
	}
	return llm.Wrap(base, mws...), nil
}
