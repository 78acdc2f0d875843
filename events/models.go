package events

// GeneratedContent 는 AI 가 만든 구조화된 교육 콘텐츠다.
// Content 는 기사 본문 전체(markdown), Sections 는 렌더링용 하위 단락이다.
type GeneratedContent struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Sections []Section `json:"sections"`
}

type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
