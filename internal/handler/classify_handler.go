package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/response"
	"github.com/entersoft/smartextract/internal/service"
)

type ClassifyHandler struct {
	classify *service.ClassifyService
}

func NewClassifyHandler(classify *service.ClassifyService) *ClassifyHandler {
	return &ClassifyHandler{classify: classify}
}

type zeroShotRequest struct {
	Text               string   `json:"text"`
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template"`
	MultiLabel         bool     `json:"multi_label"`
}

type validateRequest struct {
	Text               string `json:"text"`
	Category           string `json:"category"`
	HypothesisTemplate string `json:"hypothesis_template"`
}

type detectLabelsRequest struct {
	Schema             model.Schema `json:"schema"`
	Blocks             []string     `json:"blocks"`
	HypothesisTemplate string       `json:"hypothesis_template"`
}

func (h *ClassifyHandler) ZeroShot(c *gin.Context) {
	var req zeroShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.classify.Classify(c.Request.Context(), req.Text, req.CandidateLabels, req.HypothesisTemplate, req.MultiLabel)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"labels": result.Labels, "scores": result.Scores})
}

func (h *ClassifyHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.classify.Validate(c.Request.Context(), req.Text, req.Category, req.HypothesisTemplate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ClassifyHandler) DetectLabels(c *gin.Context) {
	var req detectLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.classify.DetectLabels(c.Request.Context(), req.Schema, req.Blocks, req.HypothesisTemplate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
