package service

import (
	"context"
	"errors"
	"math"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/matcher"
	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errs"
)

const (
	defaultTopK = 3
	maxTopK     = 10

	// Value lookup keeps short tokens ("PR", "12"); label detection wants
	// label-shaped words, so its floor is higher.
	defaultExtractTokenLen = 2
	defaultDetectTokenLen  = 3

	defaultDetectThreshold = 0.5
)

type SemanticMatch struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

type LabelExtraction struct {
	Label       string          `json:"label"`
	Description string          `json:"description"`
	TopMatches  []SemanticMatch `json:"top_matches"`
	BestMatch   string          `json:"best_match"`
	BestScore   float64         `json:"best_score"`
}

type SemanticExtraction struct {
	Results         []LabelExtraction `json:"results"`
	Summary         map[string]string `json:"extraction_summary"`
	TotalCandidates int               `json:"total_candidates"`
	Model           string            `json:"model_used"`
}

type DetectedLabel struct {
	Candidate string  `json:"candidate_text"`
	Label     string  `json:"matched_label"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

type SemanticLabelDetection struct {
	Detected        []DetectedLabel   `json:"detected_labels"`
	Summary         map[string]string `json:"labels_summary"`
	TotalCandidates int               `json:"total_candidates"`
	Model           string            `json:"model_used"`
}

type SemanticOptions struct {
	TopK                int
	MinTokenLength      int
	SimilarityThreshold float64
}

// SemanticService answers stateless top-K similarity queries between schema
// descriptions and document terms. Unlike the sequential extractor there is
// no cursor and no ordering constraint; every label sees every candidate.
type SemanticService struct {
	matcher *matcher.Matcher
}

func NewSemanticService(m *matcher.Matcher) *SemanticService {
	return &SemanticService{matcher: m}
}

// Extract ranks document candidates against each schema description and
// returns the top-K per label. Matches below the threshold are dropped, but a
// label never comes back empty: when nothing clears the threshold the single
// best candidate is kept so callers always get a suggestion to inspect.
func (s *SemanticService) Extract(ctx context.Context, schema model.Schema, text string, opts SemanticOptions) (*SemanticExtraction, error) {
	if len(schema) == 0 {
		return nil, errs.ErrInvalid
	}
	minTokenLen := opts.MinTokenLength
	if minTokenLen <= 0 {
		minTokenLen = defaultExtractTokenLen
	}
	candidates := matcher.CandidateTerms(text, minTokenLen)
	if len(candidates) == 0 {
		return nil, errs.ErrEmptyDocument
	}
	topK := clampTopK(opts.TopK)

	queries := make([]string, 0, len(schema))
	for _, field := range schema {
		queries = append(queries, field.Description)
	}
	ranked, err := s.matcher.TopKMatches(ctx, queries, candidates, topK)
	if err != nil {
		return nil, semanticErr(err)
	}

	out := &SemanticExtraction{
		Summary:         make(map[string]string, len(schema)),
		TotalCandidates: len(candidates),
		Model:           s.matcher.ModelName(),
	}
	for i, field := range schema {
		matches := make([]SemanticMatch, 0, len(ranked[i]))
		for _, sc := range ranked[i] {
			if sc.Score < opts.SimilarityThreshold {
				continue
			}
			matches = append(matches, SemanticMatch{
				Text:  sc.Text,
				Score: round3(sc.Score),
				Rank:  len(matches) + 1,
			})
		}
		// Nothing cleared the threshold; keep the best candidate anyway.
		if len(matches) == 0 && len(ranked[i]) > 0 {
			best := ranked[i][0]
			matches = append(matches, SemanticMatch{Text: best.Text, Score: round3(best.Score), Rank: 1})
		}
		result := LabelExtraction{
			Label:       field.Name,
			Description: field.Description,
			TopMatches:  matches,
		}
		if len(matches) > 0 {
			result.BestMatch = matches[0].Text
			result.BestScore = matches[0].Score
		}
		out.Results = append(out.Results, result)
		out.Summary[field.Name] = result.BestMatch
	}
	logutil.GetLogger(ctx).Debug("semantic extract done",
		zap.Int("labels", len(schema)),
		zap.Int("candidates", len(candidates)),
	)
	return out, nil
}

// DetectLabels inverts Extract: each document term is matched against the
// schema descriptions, and terms whose best label clears the threshold are
// reported as labels present in the document.
func (s *SemanticService) DetectLabels(ctx context.Context, schema model.Schema, text string, opts SemanticOptions) (*SemanticLabelDetection, error) {
	if len(schema) == 0 {
		return nil, errs.ErrInvalid
	}
	minTokenLen := opts.MinTokenLength
	if minTokenLen <= 0 {
		minTokenLen = defaultDetectTokenLen
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultDetectThreshold
	}
	candidates := matcher.CandidateTerms(text, minTokenLen)
	if len(candidates) == 0 {
		return nil, errs.ErrEmptyDocument
	}

	descriptions := make([]string, 0, len(schema))
	for _, field := range schema {
		descriptions = append(descriptions, field.Description)
	}
	ranked, err := s.matcher.TopKMatches(ctx, candidates, descriptions, 1)
	if err != nil {
		return nil, semanticErr(err)
	}

	out := &SemanticLabelDetection{
		Summary:         make(map[string]string),
		TotalCandidates: len(candidates),
		Model:           s.matcher.ModelName(),
	}
	for i, candidate := range candidates {
		if len(ranked[i]) == 0 {
			continue
		}
		best := ranked[i][0]
		if best.Score < threshold {
			continue
		}
		label := schema[best.Index].Name
		out.Detected = append(out.Detected, DetectedLabel{
			Candidate: candidate,
			Label:     label,
			Score:     round3(best.Score),
			Rank:      1,
		})
		out.Summary[candidate] = label
	}
	logutil.GetLogger(ctx).Debug("semantic label detect done",
		zap.Int("candidates", len(candidates)),
		zap.Int("detected", len(out.Detected)),
	)
	return out, nil
}

func clampTopK(k int) int {
	if k <= 0 {
		return defaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

func semanticErr(err error) error {
	if errors.Is(err, ai.ErrUnavailable) {
		return errs.ErrAIUnavailable
	}
	return err
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
