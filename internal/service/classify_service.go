package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/cache"
	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errs"
)

const (
	defaultHypothesisTemplate = "This text is {}"
	valueCandidate            = "a value or extracted data"
	otherCandidate            = "something else"

	// labelScoreCutoff rejects weak label classifications; below it a block
	// is treated as a value.
	labelScoreCutoff = 0.30
)

type ClassifiedBlock struct {
	Text       string  `json:"text"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

type LabelDetection struct {
	LabelsDetected []string          `json:"labels_detected"`
	Blocks         []ClassifiedBlock `json:"classified_blocks"`
	CacheHits      int               `json:"cache_hits"`
	TotalBlocks    int               `json:"total_blocks"`
}

// ClassifyService fronts the external zero-shot classifier with the pairwise
// score cache: each (block, candidate) score is cached independently, so a
// block seen again with the same candidate set never reaches the provider.
type ClassifyService struct {
	classifier ai.IClassifier
	scores     *cache.ScoreCache
}

func NewClassifyService(classifier ai.IClassifier, scores *cache.ScoreCache) *ClassifyService {
	return &ClassifyService{classifier: classifier, scores: scores}
}

func (s *ClassifyService) Classify(ctx context.Context, text string, candidates []string, template string, multiLabel bool) (*ai.ClassifyResult, error) {
	if s.classifier == nil {
		return nil, errs.ErrClassifierUnavailable
	}
	if strings.TrimSpace(text) == "" || len(candidates) == 0 {
		return nil, errs.ErrInvalid
	}
	if template == "" {
		template = defaultHypothesisTemplate
	}
	return s.classifier.Classify(ctx, text, candidates, template, multiLabel)
}

type BinaryValidation struct {
	IsCategory bool    `json:"is_category"`
	Confidence float64 `json:"confidence"`
}

// Validate runs a binary zero-shot check: does text belong to category? The
// classifier decides between the category and a generic alternative; when the
// alternative wins, confidence is the complement of its score.
func (s *ClassifyService) Validate(ctx context.Context, text, category, template string) (*BinaryValidation, error) {
	if strings.TrimSpace(category) == "" {
		return nil, errs.ErrInvalid
	}
	result, err := s.Classify(ctx, text, []string{category, otherCandidate}, template, false)
	if err != nil {
		return nil, err
	}
	best, score := result.Best()
	if best == category {
		return &BinaryValidation{IsCategory: true, Confidence: score}, nil
	}
	return &BinaryValidation{Confidence: 1 - score}, nil
}

// DetectLabels classifies each text block as a schema-field label or a value.
// Blocks flagged as labels are the ones a caller strips before value
// extraction. An empty template falls back to the default hypothesis.
func (s *ClassifyService) DetectLabels(ctx context.Context, schema model.Schema, blocks []string, template string) (*LabelDetection, error) {
	if s.classifier == nil {
		return nil, errs.ErrClassifierUnavailable
	}
	if len(schema) == 0 || len(blocks) == 0 {
		return nil, errs.ErrInvalid
	}
	candidates := make([]string, 0, len(schema)+1)
	for _, field := range schema {
		candidates = append(candidates, fmt.Sprintf("the label of field '%s'", field.Name))
	}
	candidates = append(candidates, valueCandidate)
	if template == "" {
		template = defaultHypothesisTemplate
	}

	out := &LabelDetection{}
	logger := logutil.GetLogger(ctx).With(zap.Int("blocks", len(blocks)))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out.TotalBlocks++
		result, hit, err := s.classifyCached(ctx, block, candidates, template)
		if err != nil {
			logger.Warn("block classification failed", zap.Error(err))
			out.Blocks = append(out.Blocks, ClassifiedBlock{Text: block, Kind: "value"})
			continue
		}
		if hit {
			out.CacheHits++
		}
		best, score := result.Best()
		isLabel := best != valueCandidate && score > labelScoreCutoff
		kind := "value"
		if isLabel {
			kind = "label"
			out.LabelsDetected = append(out.LabelsDetected, block)
		}
		out.Blocks = append(out.Blocks, ClassifiedBlock{Text: block, Kind: kind, Confidence: score})
	}
	return out, nil
}

// classifyCached serves (block, hypothesis) scores from the score cache when
// every candidate is present, calling the provider otherwise and caching
// whatever it returns. Caching by rendered hypothesis rather than raw
// candidate keeps scores from different templates apart.
func (s *ClassifyService) classifyCached(ctx context.Context, block string, candidates []string, template string) (*ai.ClassifyResult, bool, error) {
	scores := make([]float64, len(candidates))
	allCached := true
	for i, candidate := range candidates {
		score, ok := s.scores.Get(ctx, block, hypothesisFor(template, candidate))
		if !ok {
			allCached = false
			break
		}
		scores[i] = score
	}
	if allCached {
		return sortedResult(candidates, scores), true, nil
	}
	result, err := s.classifier.Classify(ctx, block, candidates, template, false)
	if err != nil {
		return nil, false, err
	}
	for i, label := range result.Labels {
		s.scores.Put(ctx, block, hypothesisFor(template, label), result.Scores[i])
	}
	return result, false, nil
}

// hypothesisFor renders the NLI hypothesis the classifier tests for a
// candidate, e.g. "This text is {}" + "a date" -> "This text is a date".
func hypothesisFor(template, candidate string) string {
	return strings.Replace(template, "{}", candidate, 1)
}

func sortedResult(candidates []string, scores []float64) *ai.ClassifyResult {
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	out := &ai.ClassifyResult{
		Labels: make([]string, len(candidates)),
		Scores: make([]float64, len(candidates)),
	}
	for pos, i := range idx {
		out.Labels[pos] = candidates[i]
		out.Scores[pos] = scores[i]
	}
	return out
}
