package dto

import "time"

// GenerateRequestDTO 는 POST /generation 요청 본문이다.
// education_personal_id 는 미리 만든 draft 에 내용을 채울 때만 보낸다.
type GenerateRequestDTO struct {
	Prompt              string   `json:"prompt" example:"Explain binary search to a high school student"`
	Tags                []string `json:"tags,omitempty" example:"algorithms,search"`
	EducationPersonalID string   `json:"education_personal_id,omitempty"`
}

type UsageDTO struct {
	Date      string `json:"date" example:"2025-01-31"`
	Current   int    `json:"current" example:"3"`
	Limit     int    `json:"limit" example:"10"`
	Remaining int    `json:"remaining" example:"7"`
}

// GenerateAcceptedDTO 는 202 응답이다. 결과는 GET /generation/{id} 로 확인한다.
type GenerateAcceptedDTO struct {
	EventID             string   `json:"event_id"`
	EducationPersonalID string   `json:"education_personal_id"`
	Usage               UsageDTO `json:"usage"`
}

// QuotaExceededDTO 는 429 응답이다.
type QuotaExceededDTO struct {
	Error     string `json:"error" example:"quota_exceeded"`
	Current   int    `json:"current" example:"10"`
	Limit     int    `json:"limit" example:"10"`
	Remaining int    `json:"remaining" example:"0"`
}

// GenerationStatusDTO 는 생성 요청의 현재 상태다.
type GenerationStatusDTO struct {
	EducationPersonalID string     `json:"education_personal_id"`
	State               string     `json:"state" example:"completed"`
	Prompt              string     `json:"prompt"`
	Tags                []string   `json:"tags,omitempty"`
	Attempts            int        `json:"attempts"`
	Error               string     `json:"error,omitempty"`
	ErrorKind           string     `json:"error_kind,omitempty" example:"timeout"`
	ArticleID           string     `json:"article_id,omitempty"`
	Slug                string     `json:"slug,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}
