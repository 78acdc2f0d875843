package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider 는 openai-go SDK 로 OpenAI 호환 chat completions 를 호출한다.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), model: model}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	userPrompt := UserPrompt(req)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SYSTEM_INSTRUCTION),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, Classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, newProviderError(KindMalformed, "openai: empty choices")
	}

	choice := resp.Choices[0]
	llmLog := &LLMRequestLog{
		Provider:     p.Name(),
		Prompt:       fmt.Sprintf("%s\n\n%s", SYSTEM_INSTRUCTION, userPrompt),
		Response:     choice.Message.Content,
		LatencyMs:    time.Since(startTime).Milliseconds(),
		ModelName:    p.model,
		ModelVersion: resp.Model,
		GeneratedAt:  time.Now(),
		TokenUsage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}

	if choice.FinishReason == "content_filter" {
		return &Result{Log: llmLog}, newProviderError(KindPolicy, "openai content filter stopped the response")
	}
	if choice.Message.Refusal != "" {
		return &Result{Log: llmLog}, newProviderError(KindPolicy, "model refused: %s", choice.Message.Refusal)
	}

	generated, err := ParseResponse(llmLog.Response)
	if err != nil {
		return &Result{Log: llmLog}, err
	}
	return &Result{Content: generated, Log: llmLog}, nil
}
