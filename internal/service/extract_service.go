package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/cache"
	"github.com/entersoft/smartextract/internal/matcher"
	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pattern"
	"github.com/entersoft/smartextract/internal/pkg/errs"
)

const defaultConfidenceThreshold = 0.7

// cacheWriteTimeout bounds the detached result-cache write so an abandoned
// goroutine cannot hang on a dead store.
const cacheWriteTimeout = 10 * time.Second

type ExtractRequest struct {
	Label               string
	Text                string
	Schema              model.Schema
	ConfidenceThreshold float64
	EnableFallback      bool
	ForceFallback       bool
}

type ExtractResponse struct {
	Fields     []model.MatchResult `json:"fields"`
	Confidence float64             `json:"confidence"`
	Cached     bool                `json:"cached"`
	Entities   []model.Entity      `json:"entities,omitempty"`
}

// ExtractService runs the full pipeline: result-cache lookup, structured
// pattern scan, sequential matching, optional LLM fallback, detached cache
// write. It always answers with a structured result; only input validation
// can fail a request.
type ExtractService struct {
	matcher  *matcher.Matcher
	results  *cache.ResultCache
	fallback *FallbackClient
	ner      ai.INERClient
}

func NewExtractService(m *matcher.Matcher, results *cache.ResultCache, fallback *FallbackClient, ner ai.INERClient) *ExtractService {
	return &ExtractService{matcher: m, results: results, fallback: fallback, ner: ner}
}

func (s *ExtractService) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errs.ErrEmptyDocument
	}
	if len(req.Schema) == 0 {
		return nil, errs.ErrInvalid
	}
	threshold := req.ConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("label", req.Label), zap.Int("fields", len(req.Schema)))

	// Cached path: values only, provenance is not persisted.
	if record, ok := s.results.Get(ctx, req.Label, req.Text, req.Schema); ok {
		logger.Info("extraction cache hit")
		return responseFromRecord(req.Schema, record), nil
	}

	entities := pattern.Extract(req.Text)
	var nerEntities []model.Entity
	if s.ner != nil {
		found, err := s.ner.ExtractEntities(ctx, req.Text)
		if err != nil {
			logger.Warn("ner provider failed, continuing with patterns only", zap.Error(err))
		} else {
			nerEntities = found
		}
	}

	matched := s.matcher.Match(ctx, req.Schema, req.Text, entities)
	fields := matched.Fields
	confidence := matched.Confidence
	logger.Info("sequential match done",
		zap.Int("resolved", countFound(fields)), zap.Float64("confidence", confidence))

	if req.EnableFallback && s.fallback != nil && (confidence < threshold || req.ForceFallback) {
		if replaced, ok := s.runFallback(ctx, req.Schema, req.Text); ok {
			// Last writer wins: the matcher output was only the cheap first
			// attempt.
			fields = replaced
		}
	}

	resp := &ExtractResponse{Fields: fields, Confidence: confidence, Entities: nerEntities}
	s.storeResult(ctx, req, fields, confidence)
	return resp, nil
}

func (s *ExtractService) runFallback(ctx context.Context, schema model.Schema, text string) ([]model.MatchResult, bool) {
	logger := logutil.GetLogger(ctx)
	values, err := s.fallback.ExtractFields(ctx, schema, text)
	if err != nil {
		logger.Warn("llm fallback failed, keeping matcher result", zap.Error(err))
		return nil, false
	}
	fields := make([]model.MatchResult, 0, len(schema))
	for _, field := range schema {
		value := values[field.Name]
		r := model.MatchResult{Field: field.Name, Method: model.MethodLLMFallback, LineIndex: -1}
		if value != nil {
			r.Value = *value
			r.Found = true
		}
		fields = append(fields, r)
	}
	logger.Info("llm fallback replaced matcher output", zap.Int("resolved", countFound(fields)))
	return fields, true
}

// storeResult writes the record off the request path: one attempt, failures
// logged and forgotten.
func (s *ExtractService) storeResult(ctx context.Context, req ExtractRequest, fields []model.MatchResult, confidence float64) {
	if req.Label == "" {
		return
	}
	record := model.RecordFromResults(fields, confidence)
	logger := logutil.GetLogger(ctx).With(zap.String("label", req.Label))
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
		defer cancel()
		if !s.results.Put(writeCtx, req.Label, req.Text, req.Schema, record) {
			logger.Debug("extraction cache write dropped")
		}
	}()
}

func responseFromRecord(schema model.Schema, record *model.ExtractionRecord) *ExtractResponse {
	fields := make([]model.MatchResult, 0, len(schema))
	for _, field := range schema {
		r := model.MatchResult{Field: field.Name, Method: model.MethodCached, LineIndex: -1}
		if value, ok := record.Fields[field.Name]; ok && value != nil {
			r.Value = *value
			r.Found = true
		}
		fields = append(fields, r)
	}
	return &ExtractResponse{Fields: fields, Confidence: record.Confidence, Cached: true}
}

func countFound(fields []model.MatchResult) int {
	n := 0
	for _, f := range fields {
		if f.Found {
			n++
		}
	}
	return n
}

// InvalidateCache drops cached extraction results for one label (or all).
func (s *ExtractService) InvalidateCache(ctx context.Context, label string) int {
	return s.results.Invalidate(ctx, label)
}
