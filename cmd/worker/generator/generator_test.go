package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), KindTimeout},
		{"other", errors.New("connection reset by peer"), KindTransport},
		{"already classified", &ProviderError{Kind: KindPolicy, Err: errors.New("blocked")}, KindPolicy},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			pe := Classify(testCase.err)
			require.NotNil(t, pe)
			assert.Equal(t, testCase.want, pe.Kind)
			assert.ErrorIs(t, pe, testCase.err)
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestParseResponse(t *testing.T) {
	raw := `{"title":" Memilah Sampah ","content":"## Kenapa\n\nKarena bumi.","sections":[{"title":"Kenapa","content":"Karena bumi."},{"title":"","content":" "}],"error":null}`
	got, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Memilah Sampah", got.Title)
	assert.Equal(t, "## Kenapa\n\nKarena bumi.", got.Content)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Kenapa", got.Sections[0].Title)
}

func TestParseResponseAcceptsCodeFenceAndEmptySections(t *testing.T) {
	raw := "```json\n{\"title\":\"T\",\"content\":\"C\",\"sections\":[]}\n```"
	got, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Empty(t, got.Sections)
}

func TestParseResponseErrors(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want ErrorKind
	}{
		{"empty", "  ", KindMalformed},
		{"not json", "Here is your article: ...", KindMalformed},
		{"missing title", `{"title":"","content":"C"}`, KindMalformed},
		{"missing content", `{"title":"T","content":""}`, KindMalformed},
		{"refused", `{"title":"","content":"","error":"unsafe topic"}`, KindPolicy},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := ParseResponse(testCase.raw)
			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, testCase.want, pe.Kind)
		})
	}
}

func TestUserPrompt(t *testing.T) {
	assert.Equal(t, "Topic: kompos", UserPrompt(Request{Prompt: " kompos "}))
	assert.Equal(t, "Topic: kompos\nTags: tanah, sampah", UserPrompt(Request{Prompt: "kompos", Tags: []string{"tanah", "sampah"}}))
}

func TestGeminiBlockReason(t *testing.T) {
	assert.Equal(t, "", geminiBlockReason(nil))
	assert.Equal(t, "", geminiBlockReason(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
	}))
	assert.Equal(t, "safety", geminiBlockReason(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}))
	assert.Equal(t, "SAFETY", geminiBlockReason(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}))
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "gpt-4o-mini", "")
	assert.Error(t, err)
	p, err := NewOpenAIProvider("sk-test", "gpt-4o-mini", "http://localhost:1234/v1")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}
