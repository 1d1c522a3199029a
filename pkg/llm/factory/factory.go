package factory

import (
	"context"
	"fmt"
	"time"

	"fusion-agent-be/pkg/llm"
	"fusion-agent-be/pkg/llm/gemini"
	"fusion-agent-be/pkg/llm/ollama"
	"fusion-agent-be/pkg/llm/openai"
)

// Settings carries everything any provider may need.
type Settings struct {
	Provider   string // "ollama", "openai", "azure", "gemini"
	Model      string
	BaseURL    string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, s.Model, s.Timeout), nil
	case "openai":
		return openai.NewProvider(openai.Config{
			BaseURL: s.BaseURL,
			APIKey:  s.APIKey,
			Model:   s.Model,
			Timeout: s.Timeout,
		}), nil
	case "azure":
		if s.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires an endpoint")
		}
		return openai.NewProvider(openai.Config{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      s.Model,
			Azure:      true,
			APIVersion: s.APIVersion,
			Timeout:    s.Timeout,
		}), nil
	case "gemini":
		provider, err := gemini.NewProvider(ctx, gemini.Config{APIKey: s.APIKey, Model: s.Model, BaseURL: s.BaseURL})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
