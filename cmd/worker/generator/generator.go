package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"edu-gen/events"
)

// ErrorKind 는 provider 실패의 분류다. generate.failed 의 error_kind 로 그대로 나간다.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"
	KindPolicy    ErrorKind = "policy"
	KindMalformed ErrorKind = "malformed"
	KindQuota     ErrorKind = "quota"
	// KindStalled 는 provider 결과 없이 pending/generating 에 멈춘 요청을 복구 스윕이 끝낼 때 쓴다.
	KindStalled ErrorKind = "stalled"
)

// ProviderError 는 AI 호출 실패다. 워커 안에서 재시도하지 않고 generate.failed 로 바뀐다.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(kind ErrorKind, format string, args ...any) *ProviderError {
	return &ProviderError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify 는 SDK 오류를 ProviderError 로 감싼다. 이미 ProviderError 면 그대로 둔다.
func Classify(err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProviderError{Kind: KindTimeout, Err: err}
	}
	return &ProviderError{Kind: KindTransport, Err: err}
}

type Request struct {
	Prompt string
	Tags   []string
}

type Result struct {
	Content events.GeneratedContent
	Log     *LLMRequestLog
}

// LLMRequestLog 는 호출 한 번의 입력, 응답, 토큰 사용량이다.
type LLMRequestLog struct {
	Provider     string     `json:"provider"`
	Prompt       string     `json:"prompt"`
	Response     string     `json:"response"`
	LatencyMs    int64      `json:"latency_ms"`
	TokenUsage   TokenUsage `json:"token_usage"`
	ModelName    string     `json:"model_name"`
	ModelVersion string     `json:"model_version"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Provider 는 prompt 로 구조화된 교육 콘텐츠를 만든다.
// 실패는 항상 *ProviderError 이고, 호출이 응답까지 갔다면 Result.Log 가 채워진다.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

const SYSTEM_INSTRUCTION = `
You are an educational content writer for an environmental learning platform.
Write one self-contained educational article about the topic the user gives you.
The response MUST be a valid JSON object with these keys:

1. title: A short, descriptive article title (plain text, no markdown).
2. content: The full article body in Markdown. Use "##" headings for sections,
   short paragraphs and lists where they help. 400-900 words.
3. sections: A list of objects {"title": string, "content": string} that mirror the
   "##" sections of content, in order. May be an empty list.
4. error: An optional string field. If the topic is unsafe, harmful, or not an
   educational topic, set this field to a short reason and leave title and content empty.
   Otherwise, set it to null.

Additional constraints:
- Write in the language the topic is written in.
- If tags are given, keep the article focused on them.
- You MUST NOT wrap the JSON output in a markdown code block (e.g., ` + "```json ... ```" + `).
- The response should contain ONLY the raw JSON string.
`

// UserPrompt 는 사용자 입력과 태그를 모델 입력 한 덩어리로 만든다.
func UserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(strings.TrimSpace(req.Prompt))
	if len(req.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(req.Tags, ", "))
	}
	return b.String()
}

type generationResponse struct {
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Sections []events.Section `json:"sections"`
	Error    *string          `json:"error,omitempty"`
}
