package cache

import (
	"context"
	"encoding/json"
	"time"
)

const DefaultScoreTTL = 14 * 24 * time.Hour

// ScoreCache caches pairwise zero-shot classification scores keyed by
// (text, hypothesis) fingerprints. Scores are plain floats in [0,1].
type ScoreCache struct {
	store *Store
	ttl   time.Duration
}

func NewScoreCache(store *Store, ttl time.Duration) *ScoreCache {
	if ttl <= 0 {
		ttl = DefaultScoreTTL
	}
	return &ScoreCache{store: store, ttl: ttl}
}

func (c *ScoreCache) Get(ctx context.Context, text, hypothesis string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	data, ok := c.store.Get(ctx, scoreKey(text, hypothesis))
	if !ok {
		return 0, false
	}
	var score float64
	if err := json.Unmarshal(data, &score); err != nil {
		return 0, false
	}
	return score, true
}

func (c *ScoreCache) Put(ctx context.Context, text, hypothesis string, score float64) bool {
	if c == nil {
		return false
	}
	data, err := json.Marshal(score)
	if err != nil {
		return false
	}
	return c.store.SetWithTTL(ctx, scoreKey(text, hypothesis), data, c.ttl)
}

func (c *ScoreCache) Count(ctx context.Context) int {
	if c == nil {
		return 0
	}
	return c.store.CountKeys(ctx, "nli:*")
}
