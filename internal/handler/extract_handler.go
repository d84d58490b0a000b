package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/response"
	"github.com/entersoft/smartextract/internal/service"
)

type ExtractHandler struct {
	extract *service.ExtractService
}

func NewExtractHandler(extract *service.ExtractService) *ExtractHandler {
	return &ExtractHandler{extract: extract}
}

type smartExtractRequest struct {
	Label               string       `json:"label"`
	Text                string       `json:"text"`
	Schema              model.Schema `json:"schema"`
	ConfidenceThreshold float64      `json:"confidence_threshold"`
	EnableFallback      bool         `json:"enable_fallback"`
	ForceFallback       bool         `json:"force_fallback"`
}

func (h *ExtractHandler) SmartExtract(c *gin.Context) {
	var req smartExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if len(req.Schema) == 0 {
		response.Error(c, errcode.ErrInvalidSchema, "schema must contain at least one field")
		return
	}
	result, err := h.extract.Extract(c.Request.Context(), service.ExtractRequest{
		Label:               req.Label,
		Text:                req.Text,
		Schema:              req.Schema,
		ConfidenceThreshold: req.ConfidenceThreshold,
		EnableFallback:      req.EnableFallback,
		ForceFallback:       req.ForceFallback,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
