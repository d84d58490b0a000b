// Package embedcache decorates an embedder with the redis-backed embedding
// cache so every caller gets cache-first semantics transparently.
package embedcache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/cache"
)

func WrapCacheToEmbedder(e ai.IEmbedder, c *cache.EmbeddingCache) ai.IEmbedder {
	if e == nil || c == nil {
		return e
	}
	return &cachedEmbedder{next: e, cache: c}
}

type cachedEmbedder struct {
	next  ai.IEmbedder
	cache *cache.EmbeddingCache
}

func (d *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	if vec, ok := d.cache.Get(ctx, text); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit")
		return vec, nil
	}
	vec, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	// Store-after-compute is best effort: one attempt, failures are only a
	// miss next time.
	if !d.cache.Put(ctx, text, vec) {
		logutil.GetLogger(ctx).Debug("embedding cache write dropped")
	}
	return vec, nil
}

// EmbedBatch resolves every cached slot first and submits the misses to the
// provider as a single batched call, then splices the computed vectors back
// into their original positions.
func (d *cachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	vectors := d.cache.GetBatch(ctx, texts)
	var missTexts []string
	var missIdx []int
	for i, vec := range vectors {
		if vec == nil {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
		}
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}
	logutil.GetLogger(ctx).Debug("embedding batch",
		zap.Int("total", len(texts)), zap.Int("misses", len(missTexts)))
	computed, err := d.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		vectors[idx] = computed[j]
	}
	d.cache.PutBatch(ctx, missTexts, computed)
	return vectors, nil
}

func (d *cachedEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}
