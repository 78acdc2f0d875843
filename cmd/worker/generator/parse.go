package generator

import (
	"encoding/json"
	"strings"

	"edu-gen/events"
)

// ParseResponse 는 모델 응답 JSON 을 GeneratedContent 로 바꾼다.
// 모델이 error 를 채웠으면 KindPolicy, 형식이 맞지 않으면 KindMalformed.
func ParseResponse(raw string) (events.GeneratedContent, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return events.GeneratedContent{}, newProviderError(KindMalformed, "empty response")
	}

	var resp generationResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return events.GeneratedContent{}, newProviderError(KindMalformed, "response is not valid JSON: %v", err)
	}
	if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
		return events.GeneratedContent{}, newProviderError(KindPolicy, "model refused: %s", *resp.Error)
	}

	out := events.GeneratedContent{
		Title:    strings.TrimSpace(resp.Title),
		Content:  strings.TrimSpace(resp.Content),
		Sections: make([]events.Section, 0, len(resp.Sections)),
	}
	for _, s := range resp.Sections {
		s.Title = strings.TrimSpace(s.Title)
		s.Content = strings.TrimSpace(s.Content)
		if s.Title == "" && s.Content == "" {
			continue
		}
		out.Sections = append(out.Sections, s)
	}
	if err := out.Validate(); err != nil {
		return events.GeneratedContent{}, newProviderError(KindMalformed, "%v", err)
	}
	return out, nil
}

// 지시를 어기고 ```json 블록으로 감싼 응답도 받아준다.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
