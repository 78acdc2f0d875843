package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/services"
)

// CreateDraftHandler godoc
// @Summary      Create a draft article
// @Description  생성 전에 draft 를 만들고 education_personal_id 를 발급한다.
// @Tags         education
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateDraftRequestDTO  false  "title, tags, image"
// @Success      201   {object}  dto.CreateDraftResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Router       /education/drafts [post]
func CreateDraftHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateDraftRequestDTO
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: services.CodeInvalidRequest})
				return
			}
		}

		created, svcErr := svc.CreateDraft(c.Request.Context(), auth.UserID(c), req)
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// GetArticleHandler godoc
// @Summary      Get article by slug
// @Description  published 글을 반환한다. 토큰이 있으면 본인의 draft 도 볼 수 있다.
// @Tags         education
// @Param        slug  path  string  true  "slug"
// @Produce      json
// @Success      200  {object}  dto.ArticleDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /education/{slug} [get]
func GetArticleHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		article, svcErr := svc.GetBySlug(c.Request.Context(), viewerFrom(c), c.Param("slug"))
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, article)
	}
}

// ListArticlesHandler godoc
// @Summary      List published articles
// @Description  최신순 published 글 목록. tags 는 모두 포함하는 글만 (AND).
// @Tags         education
// @Param        page       query  int       false  "Page number (1-based)"
// @Param        page_size  query  int       false  "Page size (<=100)"
// @Param        tags       query  []string  false  "Tags (AND match)"
// @Produce      json
// @Success      200  {object}  dto.PaginationArticleSummaryDTO
// @Router       /education [get]
func ListArticlesHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ListArticlesInput
		in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		in.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
		in.Tags = c.QueryArray("tags")

		page, svcErr := svc.List(c.Request.Context(), in)
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
