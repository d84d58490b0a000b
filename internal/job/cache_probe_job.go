package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/cache"
)

// CacheProbeJob pings redis on a schedule. A successful ping is the only way
// the store recovers after it has marked itself unavailable, so the probe
// doubles as the reconnect path.
type CacheProbeJob struct {
	store      *cache.Store
	embeddings *cache.EmbeddingCache
}

func NewCacheProbeJob(store *cache.Store, embeddings *cache.EmbeddingCache) *CacheProbeJob {
	return &CacheProbeJob{store: store, embeddings: embeddings}
}

func (j *CacheProbeJob) Name() string {
	return "cache_probe"
}

func (j *CacheProbeJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	ok := j.store.HealthCheck(ctx)
	logger := logutil.GetLogger(ctx).With(zap.Bool("redis_available", ok))
	if !ok {
		logger.Warn("cache probe: redis unavailable")
		return nil
	}
	if j.embeddings != nil {
		stats := j.embeddings.Stats(ctx)
		logger = logger.With(zap.Int("cached_embeddings", stats.CachedCount))
	}
	logger.Info("cache probe ok")
	return nil
}
