package handlers

import (
	"github.com/gin-gonic/gin"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/services"
	"edu-gen/cmd/api/trace"
	"edu-gen/cmd/internal/logger"
)

func viewerFrom(c *gin.Context) services.Viewer {
	return services.Viewer{
		UserID:   auth.UserID(c),
		Operator: auth.Role(c) == auth.RoleOperator,
	}
}

// writeError 는 ServiceError 를 응답으로 옮긴다. 한도 초과는 사용량을 함께 싣는다.
func writeError(c *gin.Context, svcErr *services.ServiceError) {
	if usage, ok := svcErr.QuotaUsage(); ok {
		c.JSON(svcErr.StatusCode, dto.QuotaExceededDTO{
			Error:     svcErr.ErrorCode,
			Current:   usage.Current,
			Limit:     usage.Limit,
			Remaining: usage.Remaining,
		})
		return
	}
	if svcErr.StatusCode >= 500 {
		logger.ErrorWithFields("request failed", trace.Fields(c.Request.Context(), logger.Fields{
			"error_code": svcErr.ErrorCode,
			"error":      svcErr.Error(),
		}))
	}
	c.JSON(svcErr.StatusCode, dto.ErrorResponseDTO{Error: svcErr.ErrorCode})
}
