package generator

import (
	"context"
	"fmt"
	"os"

	"edu-gen/config"
)

// NewFromConfig 는 llm.provider 설정에 맞는 Provider 를 만든다. API 키는 환경변수에서 읽는다.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "google", "":
		return NewGeminiProvider(ctx, os.Getenv("GEMINI_API_KEY"), cfg.ModelName)
	case "openai":
		return NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), cfg.ModelName, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
