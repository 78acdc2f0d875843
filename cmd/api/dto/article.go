package dto

import "time"

type ImageDTO struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// CreateDraftRequestDTO 는 생성 전에 자리만 잡아 두는 draft 기사 요청이다.
type CreateDraftRequestDTO struct {
	Title string    `json:"title,omitempty"`
	Tags  []string  `json:"tags,omitempty"`
	Image *ImageDTO `json:"image,omitempty"`
}

type CreateDraftResponseDTO struct {
	ID                  string `json:"id"`
	EducationPersonalID string `json:"education_personal_id"`
}

type ArticleSectionDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ArticleDTO 는 단건 조회 응답이다.
type ArticleDTO struct {
	ID                  string              `json:"id"`
	EducationPersonalID string              `json:"education_personal_id"`
	Title               string              `json:"title"`
	Slug                string              `json:"slug"`
	Content             string              `json:"content"`
	Sections            []ArticleSectionDTO `json:"sections"`
	Tags                []string            `json:"tags"`
	Excerpt             string              `json:"excerpt"`
	ReadingTime         int                 `json:"reading_time" example:"3"`
	Status              string              `json:"status" example:"published"`
	Image               *ImageDTO           `json:"image,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// ArticleSummaryDTO 는 목록 응답의 항목이다. 본문은 싣지 않는다.
type ArticleSummaryDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Tags        []string  `json:"tags"`
	Excerpt     string    `json:"excerpt"`
	ReadingTime int       `json:"reading_time"`
	Image       *ImageDTO `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
