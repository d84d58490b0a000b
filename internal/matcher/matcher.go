// Package matcher assigns document lines to schema fields by cosine
// similarity over embeddings, scanning lines and fields in strict order.
package matcher

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pattern"
)

// labelPrefixes strip a leading "Label: " or "Label - " token from a matched
// line so callers get the value, not the label.
var labelPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^[A-Za-zÀ-ÿ\s]+:\s*`),
	regexp.MustCompile(`(?i)^[A-Za-zÀ-ÿ\s]+\s*-\s*`),
}

type Result struct {
	Fields []model.MatchResult
	// Confidence averages similarity scores over embedding-resolved fields
	// only; pattern hits and unresolved fields do not contribute.
	Confidence float64
}

type Matcher struct {
	embedder ai.IEmbedder
}

func New(embedder ai.IEmbedder) *Matcher {
	return &Matcher{embedder: embedder}
}

// Match walks schema fields in request order over the document lines with a
// forward-only cursor: once a line is assigned, later fields only see the
// remaining tail, so no line serves two fields and out-of-order lines cannot
// steal an earlier field's slot. Structured-pattern hits bypass the cursor
// entirely. Never fails: any internal fault yields an empty zero-confidence
// result.
func (m *Matcher) Match(ctx context.Context, schema model.Schema, text string, entities pattern.Matches) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logutil.GetLogger(ctx).Error("matcher panic recovered", zap.Any("panic", r))
			result = Result{}
		}
	}()

	lines := SplitLines(text)
	if len(lines) == 0 {
		logutil.GetLogger(ctx).Warn("empty document, nothing to match")
		return Result{}
	}
	if m.embedder == nil {
		logutil.GetLogger(ctx).Warn("embedder not configured")
		return Result{}
	}

	// One batched call for every line; fields reuse these vectors.
	lineVecs, err := m.embedder.EmbedBatch(ctx, lines)
	if err != nil {
		logutil.GetLogger(ctx).Error("line embedding failed", zap.Error(err))
		return Result{}
	}

	fields := make([]model.MatchResult, 0, len(schema))
	var confidences []float64
	cursor := 0

	for _, field := range schema {
		if typ, ok := pattern.TypeFor(field.Name, field.Description); ok {
			if value, found := entities.First(typ); found {
				fields = append(fields, model.MatchResult{
					Field:      field.Name,
					Value:      value,
					Found:      true,
					Confidence: 1,
					Method:     model.MethodPattern,
					LineIndex:  -1,
				})
				// Structured values are position independent, the cursor
				// stays put.
				continue
			}
		}

		if cursor >= len(lines) {
			fields = append(fields, unresolved(field.Name))
			continue
		}

		fieldVec, err := m.embedder.Embed(ctx, field.Description)
		if err != nil {
			logutil.GetLogger(ctx).Warn("field embedding failed",
				zap.String("field", field.Name), zap.Error(err))
			fields = append(fields, unresolved(field.Name))
			continue
		}

		// Best match within the unconsumed tail; first index wins ties.
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := cursor; i < len(lines); i++ {
			score := cosineSimilarity(fieldVec, lineVecs[i])
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		fields = append(fields, model.MatchResult{
			Field:      field.Name,
			Value:      CleanValue(lines[bestIdx]),
			Found:      true,
			Confidence: bestScore,
			Method:     model.MethodEmbedding,
			LineIndex:  bestIdx,
		})
		confidences = append(confidences, bestScore)
		cursor = bestIdx + 1
	}

	avg := 0.0
	if len(confidences) > 0 {
		for _, c := range confidences {
			avg += c
		}
		avg /= float64(len(confidences))
	}
	return Result{Fields: fields, Confidence: avg}
}

// ScoredCandidate is one candidate ranked against a query. Index points back
// into the candidate slice handed to TopKMatches.
type ScoredCandidate struct {
	Index int
	Text  string
	Score float64
}

// TopKMatches scores every candidate against every query by cosine similarity
// and returns, per query, the topK best candidates in descending score order.
// Each side is embedded with a single batched call. Ties keep the earlier
// candidate.
func (m *Matcher) TopKMatches(ctx context.Context, queries []string, candidates []string, topK int) ([][]ScoredCandidate, error) {
	if m == nil || m.embedder == nil {
		return nil, ai.ErrUnavailable
	}
	if topK < 1 {
		topK = 1
	}
	queryVecs, err := m.embedder.EmbedBatch(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("embed queries: %w", err)
	}
	candidateVecs, err := m.embedder.EmbedBatch(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	out := make([][]ScoredCandidate, len(queries))
	for qi := range queries {
		scored := make([]ScoredCandidate, len(candidates))
		for ci, candidate := range candidates {
			scored[ci] = ScoredCandidate{
				Index: ci,
				Text:  candidate,
				Score: cosineSimilarity(queryVecs[qi], candidateVecs[ci]),
			}
		}
		sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
		if len(scored) > topK {
			scored = scored[:topK]
		}
		out[qi] = scored
	}
	return out, nil
}

// ModelName reports the embedding model behind this matcher, or "" when no
// embedder is configured.
func (m *Matcher) ModelName() string {
	if m == nil || m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

// CandidateTerms splits text into similarity candidates: every non-empty line
// plus every whitespace token of at least minTokenLen runes, de-duplicated in
// first occurrence order.
func CandidateTerms(text string, minTokenLen int) []string {
	if minTokenLen < 1 {
		minTokenLen = 1
	}
	seen := make(map[string]struct{})
	var terms []string
	add := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	for _, line := range SplitLines(text) {
		add(line)
		for _, token := range strings.Fields(line) {
			if utf8.RuneCountInString(token) >= minTokenLen {
				add(token)
			}
		}
	}
	return terms
}

func unresolved(name string) model.MatchResult {
	return model.MatchResult{
		Field:     name,
		Method:    model.MethodUnresolved,
		LineIndex: -1,
	}
}

// SplitLines returns the non-empty trimmed lines of text in document order.
func SplitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// CleanValue strips an optional leading label token ("Nome: ", "Nome - ").
func CleanValue(line string) string {
	cleaned := line
	for _, re := range labelPrefixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
