package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/response"
	"github.com/entersoft/smartextract/internal/textextract"
)

type TextHandler struct{}

func NewTextHandler() *TextHandler {
	return &TextHandler{}
}

type extractTextRequest struct {
	Content string `json:"content"`
	Format  string `json:"format"`
}

func (h *TextHandler) ExtractText(c *gin.Context) {
	var req extractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Content == "" {
		response.Error(c, errcode.ErrInvalidDocument, "content required")
		return
	}
	text, err := textextract.Extract(req.Content, req.Format)
	if err != nil {
		response.Error(c, errcode.ErrInvalidDocument, "cannot decode document")
		return
	}
	response.Success(c, gin.H{"text": text})
}
