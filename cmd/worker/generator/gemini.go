package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider 는 google genai SDK 로 Gemini 모델을 호출한다.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (p *GeminiProvider) Name() string { return "google" }

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	userPrompt := UserPrompt(req)

	result, err := p.client.Models.GenerateContent(
		ctx,
		p.modelName,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SYSTEM_INSTRUCTION}}},
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return nil, Classify(err)
	}

	llmLog := &LLMRequestLog{
		Provider:     p.Name(),
		Prompt:       fmt.Sprintf("%s\n\n%s", SYSTEM_INSTRUCTION, userPrompt),
		Response:     result.Text(),
		LatencyMs:    time.Since(startTime).Milliseconds(),
		ModelName:    p.modelName,
		ModelVersion: result.ModelVersion,
		GeneratedAt:  time.Now(),
	}
	if result.UsageMetadata != nil {
		llmLog.TokenUsage = TokenUsage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
	}

	if reason := geminiBlockReason(result); reason != "" {
		return &Result{Log: llmLog}, newProviderError(KindPolicy, "gemini blocked the response: %s", reason)
	}

	generated, err := ParseResponse(llmLog.Response)
	if err != nil {
		return &Result{Log: llmLog}, err
	}
	return &Result{Content: generated, Log: llmLog}, nil
}

// geminiBlockReason 은 안전 정책으로 막힌 응답의 사유를 반환한다. 막히지 않았으면 "".
func geminiBlockReason(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return string(fb.BlockReason)
	}
	for _, c := range result.Candidates {
		if c == nil {
			continue
		}
		switch c.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
			return strings.ToLower(string(c.FinishReason))
		}
	}
	return ""
}
