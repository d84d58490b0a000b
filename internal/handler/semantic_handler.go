package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/response"
	"github.com/entersoft/smartextract/internal/service"
)

type SemanticHandler struct {
	semantic *service.SemanticService
}

func NewSemanticHandler(semantic *service.SemanticService) *SemanticHandler {
	return &SemanticHandler{semantic: semantic}
}

type semanticRequest struct {
	Labels              model.Schema `json:"labels"`
	Text                string       `json:"text"`
	TopK                int          `json:"top_k"`
	MinTokenLength      int          `json:"min_token_length"`
	SimilarityThreshold float64      `json:"similarity_threshold"`
}

func (r *semanticRequest) options() service.SemanticOptions {
	return service.SemanticOptions{
		TopK:                r.TopK,
		MinTokenLength:      r.MinTokenLength,
		SimilarityThreshold: r.SimilarityThreshold,
	}
}

func (h *SemanticHandler) SemanticExtract(c *gin.Context) {
	var req semanticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if len(req.Labels) == 0 {
		response.Error(c, errcode.ErrInvalidSchema, "labels must contain at least one field")
		return
	}
	result, err := h.semantic.Extract(c.Request.Context(), req.Labels, req.Text, req.options())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *SemanticHandler) DetectLabels(c *gin.Context) {
	var req semanticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if len(req.Labels) == 0 {
		response.Error(c, errcode.ErrInvalidSchema, "labels must contain at least one field")
		return
	}
	result, err := h.semantic.DetectLabels(c.Request.Context(), req.Labels, req.Text, req.options())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
