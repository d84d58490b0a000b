package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/entersoft/smartextract/internal/pkg/errs"
)

// ClassifyResult carries labels sorted descending by score; scores are in
// [0,1] and positionally paired with labels.
type ClassifyResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (r *ClassifyResult) Best() (string, float64) {
	if r == nil || len(r.Labels) == 0 {
		return "", 0
	}
	return r.Labels[0], r.Scores[0]
}

// IClassifier is the external zero-shot classification provider boundary.
type IClassifier interface {
	Classify(ctx context.Context, text string, candidates []string, hypothesisTemplate string, multiLabel bool) (*ClassifyResult, error)
}

type ClassifierConfig struct {
	Endpoint   string `json:"endpoint"`
	TimeoutSec int    `json:"timeout_sec"`
}

type httpClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClassifier talks to a zero-shot inference service over HTTP. Returns
// nil when no endpoint is configured; callers treat a nil classifier as
// "feature off".
func NewHTTPClassifier(cfg ClassifierConfig) IClassifier {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClassifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Text               string   `json:"text"`
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template,omitempty"`
	MultiLabel         bool     `json:"multi_label"`
}

func (c *httpClassifier) Classify(ctx context.Context, text string, candidates []string, hypothesisTemplate string, multiLabel bool) (*ClassifyResult, error) {
	body, err := json.Marshal(classifyRequest{
		Text:               text,
		CandidateLabels:    candidates,
		HypothesisTemplate: hypothesisTemplate,
		MultiLabel:         multiLabel,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out ClassifyResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Labels) != len(out.Scores) {
		return nil, fmt.Errorf("classifier returned %d labels with %d scores: %w", len(out.Labels), len(out.Scores), errs.ErrBatchMismatch)
	}
	return &out, nil
}
