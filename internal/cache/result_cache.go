package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/model"
)

const DefaultResultTTL = 7 * 24 * time.Hour

// ResultCache stores finished extraction records keyed by document label,
// text hash and canonical schema hash. The label partitions the keyspace;
// requests without one are not cached at all.
type ResultCache struct {
	store *Store
	ttl   time.Duration
}

func NewResultCache(store *Store, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{store: store, ttl: ttl}
}

func (c *ResultCache) Get(ctx context.Context, label, text string, schema model.Schema) (*model.ExtractionRecord, bool) {
	if c == nil || label == "" {
		return nil, false
	}
	key := resultKey(label, text, schema)
	data, ok := c.store.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var record model.ExtractionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		logutil.GetLogger(ctx).Warn("corrupt extraction cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &record, true
}

func (c *ResultCache) Put(ctx context.Context, label, text string, schema model.Schema, record *model.ExtractionRecord) bool {
	if c == nil || label == "" || record == nil {
		return false
	}
	data, err := json.Marshal(record)
	if err != nil {
		return false
	}
	return c.store.SetWithTTL(ctx, resultKey(label, text, schema), data, c.ttl)
}

// Invalidate drops every cached record for one label, or every record when
// label is empty.
func (c *ResultCache) Invalidate(ctx context.Context, label string) int {
	if c == nil {
		return 0
	}
	pattern := "smart:*"
	if label != "" {
		pattern = "smart:" + label + ":*"
	}
	return c.store.DeleteByPattern(ctx, pattern)
}

func (c *ResultCache) Count(ctx context.Context) int {
	if c == nil {
		return 0
	}
	return c.store.CountKeys(ctx, "smart:*")
}
