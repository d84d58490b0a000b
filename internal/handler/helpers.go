package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/pkg/errcode"
	"github.com/entersoft/smartextract/internal/pkg/errs"
	"github.com/entersoft/smartextract/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, errs.ErrEmptyDocument):
		response.Error(c, errcode.ErrInvalidDocument, "document text is empty")
	case errors.Is(err, errs.ErrAIUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider not configured")
	case errors.Is(err, errs.ErrClassifierUnavailable):
		response.Error(c, errcode.ErrClassifierUnavailable, "zero-shot classifier not configured")
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, errs.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errs.IsInvalid(err):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
