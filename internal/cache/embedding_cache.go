package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	DefaultEmbeddingTTL = 30 * 24 * time.Hour

	// snippetLen bounds the diagnostic text stored alongside a vector.
	snippetLen = 100
)

// embeddingEntry is the serialized cache value. Only Vector is authoritative;
// the rest is diagnostic metadata for poking at entries in redis-cli.
type embeddingEntry struct {
	Vector    []float32 `json:"vector"`
	Dim       int       `json:"dim"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt int64     `json:"created_at"`
}

type EmbeddingCacheStats struct {
	Available   bool    `json:"available"`
	Model       string  `json:"model"`
	CachedCount int     `json:"cached_count"`
	TTLDays     float64 `json:"ttl_days"`
}

// EmbeddingCache caches embedding vectors per (model, normalized text) with a
// small in-process LRU tier in front of redis. Vectors are immutable once
// stored; staleness is handled purely by TTL.
type EmbeddingCache struct {
	store *Store
	model string
	ttl   time.Duration
	lru   *expirable.LRU[string, []float32]
}

func NewEmbeddingCache(store *Store, modelName string, ttl time.Duration, lruSize int) *EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	var lru *expirable.LRU[string, []float32]
	if lruSize > 0 {
		lru = expirable.NewLRU[string, []float32](lruSize, nil, ttl)
	}
	return &EmbeddingCache{store: store, model: modelName, ttl: ttl, lru: lru}
}

func (c *EmbeddingCache) key(text string) string {
	return embeddingKey(c.model, text)
}

func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	key := c.key(text)
	if c.lru != nil {
		if vec, ok := c.lru.Get(key); ok {
			return cloneVector(vec), true
		}
	}
	data, ok := c.store.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var entry embeddingEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		logutil.GetLogger(ctx).Warn("corrupt embedding cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(entry.Vector) == 0 {
		return nil, false
	}
	if c.lru != nil {
		c.lru.Add(key, cloneVector(entry.Vector))
	}
	return entry.Vector, true
}

func (c *EmbeddingCache) Put(ctx context.Context, text string, vector []float32) bool {
	if c == nil || len(vector) == 0 {
		return false
	}
	key := c.key(text)
	if c.lru != nil {
		c.lru.Add(key, cloneVector(vector))
	}
	entry := embeddingEntry{
		Vector:    vector,
		Dim:       len(vector),
		Model:     c.model,
		Text:      truncate(text, snippetLen),
		CreatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return false
	}
	return c.store.SetWithTTL(ctx, key, data, c.ttl)
}

// GetBatch preserves positional correspondence: out[i] is the vector for
// texts[i] or nil on miss, so callers can compute only the misses and splice
// them back by index.
func (c *EmbeddingCache) GetBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	if c == nil {
		return out
	}
	for i, text := range texts {
		if vec, ok := c.Get(ctx, text); ok {
			out[i] = vec
		}
	}
	return out
}

func (c *EmbeddingCache) PutBatch(ctx context.Context, texts []string, vectors [][]float32) int {
	if c == nil || len(texts) != len(vectors) {
		return 0
	}
	stored := 0
	for i, text := range texts {
		if c.Put(ctx, text, vectors[i]) {
			stored++
		}
	}
	return stored
}

// ClearAll drops every cached vector for this cache's model.
func (c *EmbeddingCache) ClearAll(ctx context.Context) int {
	if c == nil {
		return 0
	}
	if c.lru != nil {
		c.lru.Purge()
	}
	return c.store.DeleteByPattern(ctx, "embedding:"+c.model+":*")
}

func (c *EmbeddingCache) Stats(ctx context.Context) EmbeddingCacheStats {
	if c == nil {
		return EmbeddingCacheStats{}
	}
	stats := EmbeddingCacheStats{Model: c.model, TTLDays: c.ttl.Hours() / 24}
	if !c.store.Available(ctx) {
		return stats
	}
	stats.Available = true
	stats.CachedCount = c.store.CountKeys(ctx, "embedding:"+c.model+":*")
	return stats
}

func cloneVector(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
