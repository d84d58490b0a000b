package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/pkg/response"
)

type RouterDeps struct {
	Extract  *ExtractHandler
	Semantic *SemanticHandler
	Classify *ClassifyHandler
	Cache    *CacheHandler
	Text     *TextHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/smart-extract", deps.Extract.SmartExtract)
	api.POST("/extract-text", deps.Text.ExtractText)

	api.POST("/semantic-extract", deps.Semantic.SemanticExtract)
	api.POST("/semantic-label-detect", deps.Semantic.DetectLabels)

	api.POST("/classify/zero-shot", deps.Classify.ZeroShot)
	api.POST("/classify/validate", deps.Classify.Validate)
	api.POST("/classify/labels", deps.Classify.DetectLabels)

	api.GET("/cache/stats", deps.Cache.Stats)
	api.POST("/cache/clear", deps.Cache.Clear)
	api.GET("/cache/health", deps.Cache.Health)
}
