package factory

import (
	"context"
	"fmt"

	"mindstorm-be/pkg/llm"
	"mindstorm-be/pkg/llm/gemini"
	"mindstorm-be/pkg/llm/huggingface"
	"mindstorm-be/pkg/llm/mock"
	"mindstorm-be/pkg/llm/ollama"
)

type ProviderConfig struct {
	Provider    string
	Model       string
	ImageModel  string
	BaseURL     string
	GeminiKey   string
	HuggingFace string
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.GeminiKey, cfg.Model, cfg.ImageModel)
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(cfg.HuggingFace, "", cfg.Model), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
