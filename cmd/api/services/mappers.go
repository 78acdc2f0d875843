package services

import (
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/quota"
	"edu-gen/models"
)

func toUsageDTO(u quota.Usage) dto.UsageDTO {
	return dto.UsageDTO{Date: u.Date, Current: u.Current, Limit: u.Limit, Remaining: u.Remaining}
}

func toGenerationStatusDTO(rec *models.GenerationRecord) dto.GenerationStatusDTO {
	out := dto.GenerationStatusDTO{
		EducationPersonalID: rec.ID,
		State:               string(rec.State),
		Prompt:              rec.Prompt,
		Tags:                rec.Tags,
		Attempts:            rec.Attempts,
		Error:               rec.LastError,
		ErrorKind:           rec.ErrorKind,
		Slug:                rec.Slug,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
		CompletedAt:         rec.CompletedAt,
	}
	if rec.ArticleID != nil {
		out.ArticleID = rec.ArticleID.Hex()
	}
	return out
}

func toImageDTO(img *models.ImageRef) *dto.ImageDTO {
	if img == nil {
		return nil
	}
	return &dto.ImageDTO{SecureURL: img.SecureURL, PublicID: img.PublicID}
}

func toArticleDTO(a *models.EducationArticle) dto.ArticleDTO {
	sections := make([]dto.ArticleSectionDTO, 0, len(a.Sections))
	for _, s := range a.Sections {
		sections = append(sections, dto.ArticleSectionDTO{Title: s.Title, Content: s.Content})
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.ArticleDTO{
		ID:                  a.ID.Hex(),
		EducationPersonalID: a.EducationPersonalID,
		Title:               a.Title,
		Slug:                a.Slug,
		Content:             a.Content,
		Sections:            sections,
		Tags:                tags,
		Excerpt:             a.Excerpt,
		ReadingTime:         a.ReadingTime,
		Status:              string(a.Status),
		Image:               toImageDTO(a.Image),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func toArticleSummaryDTO(a *models.EducationArticle) dto.ArticleSummaryDTO {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.ArticleSummaryDTO{
		ID:          a.ID.Hex(),
		Title:       a.Title,
		Slug:        a.Slug,
		Tags:        tags,
		Excerpt:     a.Excerpt,
		ReadingTime: a.ReadingTime,
		Image:       toImageDTO(a.Image),
		CreatedAt:   a.CreatedAt,
	}
}
