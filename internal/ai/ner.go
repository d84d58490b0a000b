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

	"github.com/entersoft/smartextract/internal/model"
)

// INERClient is the optional named-entity-recognition boundary. A nil client
// degrades extraction to structured-pattern entities only.
type INERClient interface {
	ExtractEntities(ctx context.Context, text string) ([]model.Entity, error)
}

type NERConfig struct {
	Endpoint   string `json:"endpoint"`
	TimeoutSec int    `json:"timeout_sec"`
}

type httpNERClient struct {
	endpoint string
	client   *http.Client
}

func NewHTTPNERClient(cfg NERConfig) INERClient {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpNERClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *httpNERClient) ExtractEntities(ctx context.Context, text string) ([]model.Entity, error) {
	body, err := json.Marshal(map[string]string{"text": text})
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
		return nil, fmt.Errorf("ner request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out struct {
		Entities []model.Entity `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}
