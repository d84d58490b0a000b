package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/cache"
	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/response"
)

type CacheHandler struct {
	store      *cache.Store
	embeddings *cache.EmbeddingCache
	results    *cache.ResultCache
	scores     *cache.ScoreCache
}

func NewCacheHandler(store *cache.Store, embeddings *cache.EmbeddingCache, results *cache.ResultCache, scores *cache.ScoreCache) *CacheHandler {
	return &CacheHandler{store: store, embeddings: embeddings, results: results, scores: scores}
}

type cacheClearRequest struct {
	// Scope selects a tier: "embeddings", "results", "scores" or "all".
	Scope string `json:"scope"`
	// Label narrows a results clear to one cache label.
	Label string `json:"label"`
}

func (h *CacheHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := h.embeddings.Stats(ctx)
	response.Success(c, gin.H{
		"available":  stats.Available,
		"embeddings": stats,
		"results":    gin.H{"cached_count": h.results.Count(ctx)},
		"scores":     gin.H{"cached_count": h.scores.Count(ctx)},
	})
}

func (h *CacheHandler) Clear(c *gin.Context) {
	var req cacheClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	ctx := c.Request.Context()
	cleared := make(gin.H)
	switch req.Scope {
	case "embeddings":
		cleared["embeddings"] = h.embeddings.ClearAll(ctx)
	case "results":
		cleared["results"] = h.results.Invalidate(ctx, req.Label)
	case "scores":
		cleared["scores"] = h.store.DeleteByPattern(ctx, "nli:*")
	case "", "all":
		cleared["embeddings"] = h.embeddings.ClearAll(ctx)
		cleared["results"] = h.results.Invalidate(ctx, req.Label)
		cleared["scores"] = h.store.DeleteByPattern(ctx, "nli:*")
	default:
		response.Error(c, errcode.ErrInvalid, "unknown cache scope")
		return
	}
	response.Success(c, gin.H{"cleared": cleared})
}

func (h *CacheHandler) Health(c *gin.Context) {
	ok := h.store.HealthCheck(c.Request.Context())
	response.Success(c, gin.H{"redis_available": ok})
}
