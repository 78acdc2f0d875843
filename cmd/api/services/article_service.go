package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-gen/cmd/api/dto"
	"edu-gen/content"
	"edu-gen/models"
	"edu-gen/repositories"
)

type ArticleStore interface {
	Create(ctx context.Context, a *models.EducationArticle) (primitive.ObjectID, error)
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*models.EducationArticle, error)
	List(ctx context.Context, f repositories.ListFilter) ([]models.EducationArticle, int64, error)
}

type ArticleService struct {
	articles ArticleStore
}

func NewArticleService(articles ArticleStore) *ArticleService {
	return &ArticleService{articles: articles}
}

// CreateDraft 는 내용 없는 draft 를 만들고 education_personal_id 를 발급한다.
// 이 id 로 POST /generation 을 보내면 워커가 draft 에 내용을 채운다.
func (s *ArticleService) CreateDraft(ctx context.Context, userID string, in dto.CreateDraftRequestDTO) (dto.CreateDraftResponseDTO, *ServiceError) {
	a := &models.EducationArticle{
		EducationPersonalID: uuid.New().String(),
		UserID:              userID,
		Title:               strings.TrimSpace(in.Title),
		Tags:                content.NormalizeTags(in.Tags),
		Status:              models.ArticleDraft,
	}
	if in.Image != nil {
		if strings.TrimSpace(in.Image.SecureURL) == "" || strings.TrimSpace(in.Image.PublicID) == "" {
			return dto.CreateDraftResponseDTO{}, newError(http.StatusBadRequest, CodeInvalidRequest,
				fmt.Errorf("image requires secure_url and public_id"))
		}
		a.Image = &models.ImageRef{SecureURL: in.Image.SecureURL, PublicID: in.Image.PublicID}
	}

	id, err := s.articles.Create(ctx, a)
	if err != nil {
		return dto.CreateDraftResponseDTO{}, internalError(err)
	}
	return dto.CreateDraftResponseDTO{ID: id.Hex(), EducationPersonalID: a.EducationPersonalID}, nil
}

// GetBySlug 는 published 글을 반환한다. 작성자 본인은 자신의 draft 도 볼 수 있다.
func (s *ArticleService) GetBySlug(ctx context.Context, viewer Viewer, slug string) (dto.ArticleDTO, *ServiceError) {
	includeUnpublished := viewer.UserID != "" || viewer.Operator
	a, err := s.articles.GetBySlug(ctx, slug, includeUnpublished)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.ArticleDTO{}, notFoundError(err)
	}
	if err != nil {
		return dto.ArticleDTO{}, internalError(err)
	}
	if a.Status != models.ArticlePublished && !viewer.canAccess(a.UserID) {
		return dto.ArticleDTO{}, notFoundError(repositories.ErrNotFound)
	}
	return toArticleDTO(a), nil
}

type ListArticlesInput struct {
	Page     int
	PageSize int
	Tags     []string
}

func (s *ArticleService) List(ctx context.Context, in ListArticlesInput) (dto.Pagination[dto.ArticleSummaryDTO], *ServiceError) {
	page, size := repositories.NormalizePage(in.Page, in.PageSize)
	items, total, err := s.articles.List(ctx, repositories.ListFilter{
		Tags:     content.NormalizeTags(in.Tags),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return dto.Pagination[dto.ArticleSummaryDTO]{}, internalError(err)
	}

	data := make([]dto.ArticleSummaryDTO, 0, len(items))
	for i := range items {
		data = append(data, toArticleSummaryDTO(&items[i]))
	}
	return dto.Pagination[dto.ArticleSummaryDTO]{Data: data, Page: page, PageSize: size, Total: total}, nil
}
