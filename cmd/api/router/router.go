package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/handlers"
	"edu-gen/cmd/api/middleware"
	"edu-gen/cmd/api/services"
	"edu-gen/cmd/internal/metrics"
	_ "edu-gen/docs"
)

// Deps 는 라우터가 묶는 서비스들이다. Health 가 nil 이면 /health 는 항상 ok.
type Deps struct {
	Generation     *services.GenerationService
	Articles       *services.ArticleService
	Tokens         auth.TokenParser
	AllowedOrigins []string
	Health         func(ctx context.Context) error
}

func New(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace(), middleware.RequestMetrics(), corsMiddleware(deps.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, dto.HealthResponseDTO{Status: "degraded", Mongo: "down"})
				return
			}
		}
		c.JSON(http.StatusOK, dto.HealthResponseDTO{Status: "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireUser := auth.RequireUser(deps.Tokens)
	optionalUser := auth.OptionalUser(deps.Tokens)

	// v1 routes
	api := r.Group("/api/v1")
	{
		gen := api.Group("/generation", requireUser)
		gen.GET("/usage", handlers.GetUsageHandler(deps.Generation))
		gen.POST("", handlers.GenerateHandler(deps.Generation))
		gen.GET("/:id", handlers.GetGenerationHandler(deps.Generation))
		gen.POST("/:id/retry", handlers.RetryGenerationHandler(deps.Generation))

		edu := api.Group("/education")
		edu.GET("", handlers.ListArticlesHandler(deps.Articles))
		edu.POST("/drafts", requireUser, handlers.CreateDraftHandler(deps.Articles))
		edu.GET("/:slug", optionalUser, handlers.GetArticleHandler(deps.Articles))
	}

	return r
}

// corsMiddleware 는 rs/cors 를 gin 미들웨어로 감싼다. preflight 는 여기서 끝낸다.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
