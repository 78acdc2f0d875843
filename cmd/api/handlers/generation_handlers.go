package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/services"
)

// GetUsageHandler godoc
// @Summary      Get today's generation usage
// @Description  오늘(UTC) 생성 요청 사용량과 남은 횟수
// @Tags         generation
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.UsageDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /generation/usage [get]
func GetUsageHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		usage, svcErr := svc.Usage(c.Request.Context(), auth.UserID(c))
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, usage)
	}
}

// GenerateHandler godoc
// @Summary      Request content generation
// @Description  한도를 예약하고 generate 이벤트를 발행한다. 결과는 GET /generation/{id} 로 확인한다.
// @Tags         generation
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GenerateRequestDTO  true  "prompt, tags, education_personal_id"
// @Success      202   {object}  dto.GenerateAcceptedDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Failure      429   {object}  dto.QuotaExceededDTO
// @Failure      503   {object}  dto.ErrorResponseDTO
// @Router       /generation [post]
func GenerateHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.GenerateRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: services.CodeInvalidRequest})
			return
		}

		accepted, svcErr := svc.Generate(c.Request.Context(), auth.UserID(c), services.GenerateInput{
			Prompt:              req.Prompt,
			Tags:                req.Tags,
			EducationPersonalID: req.EducationPersonalID,
		})
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusAccepted, accepted)
	}
}

// GetGenerationHandler godoc
// @Summary      Get generation status
// @Description  요청자 본인의 생성 요청 상태 (pending, generating, completed, failed)
// @Tags         generation
// @Security     BearerAuth
// @Param        id   path  string  true  "education_personal_id"
// @Produce      json
// @Success      200  {object}  dto.GenerationStatusDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /generation/{id} [get]
func GetGenerationHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, svcErr := svc.Status(c.Request.Context(), viewerFrom(c), c.Param("id"))
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// RetryGenerationHandler godoc
// @Summary      Retry a failed generation
// @Description  failed 상태의 요청을 같은 id 로 다시 발행한다. 새 요청처럼 한도를 사용한다.
// @Tags         generation
// @Security     BearerAuth
// @Param        id   path  string  true  "education_personal_id"
// @Produce      json
// @Success      202  {object}  dto.GenerateAcceptedDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Failure      429  {object}  dto.QuotaExceededDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /generation/{id}/retry [post]
func RetryGenerationHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accepted, svcErr := svc.Retry(c.Request.Context(), viewerFrom(c), c.Param("id"))
		if svcErr != nil {
			writeError(c, svcErr)
			return
		}
		c.JSON(http.StatusAccepted, accepted)
	}
}
