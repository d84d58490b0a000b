// Package cache implements the redis-backed caching tiers: embeddings,
// extraction results and pairwise classification scores. Every operation
// degrades to a miss when redis is unreachable; callers never see a cache
// error.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	stateUnknown int32 = iota
	stateConnected
	stateUnavailable
)

type StoreConfig struct {
	Addr            string `json:"addr"`
	Password        string `json:"password"`
	DB              int    `json:"db"`
	DialTimeoutSec  int    `json:"dial_timeout_sec"`
	ReadTimeoutSec  int    `json:"read_timeout_sec"`
	WriteTimeoutSec int    `json:"write_timeout_sec"`
}

// Store wraps a shared redis client with an explicit availability state.
// The state is probed lazily on first use and re-evaluated by HealthCheck;
// a store marked unavailable answers every call as a miss without touching
// the network, so a dead redis never turns into a connection storm.
type Store struct {
	client *redis.Client
	state  atomic.Int32
}

func NewStore(cfg StoreConfig) *Store {
	dialTimeout := secondsOrDefault(cfg.DialTimeoutSec, 5)
	readTimeout := secondsOrDefault(cfg.ReadTimeoutSec, 5)
	writeTimeout := secondsOrDefault(cfg.WriteTimeoutSec, 5)
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})
	return &Store{client: client}
}

func secondsOrDefault(v int, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// HealthCheck pings redis and updates the availability state. This is the
// only path that can bring an unavailable store back.
func (s *Store) HealthCheck(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		if s.state.Swap(stateUnavailable) != stateUnavailable {
			logutil.GetLogger(ctx).Warn("cache store unavailable, caching disabled", zap.Error(err))
		}
		return false
	}
	if s.state.Swap(stateConnected) != stateConnected {
		logutil.GetLogger(ctx).Info("cache store connected")
	}
	return true
}

func (s *Store) Available(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	switch s.state.Load() {
	case stateConnected:
		return true
	case stateUnavailable:
		return false
	default:
		return s.HealthCheck(ctx)
	}
}

func (s *Store) markFailed(ctx context.Context, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if s.state.Swap(stateUnavailable) != stateUnavailable {
		logutil.GetLogger(ctx).Warn("cache store operation failed, caching disabled",
			zap.String("op", op), zap.Error(err))
	}
}

// Get returns the raw value for key, or ok=false on miss or store failure.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.Available(ctx) {
		return nil, false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.markFailed(ctx, "get", err)
		}
		return nil, false
	}
	return data, true
}

// SetWithTTL stores value under key. Best effort: a false return means the
// write was dropped, never that the caller should fail.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if !s.Available(ctx) {
		return false
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.markFailed(ctx, "set", err)
		return false
	}
	return true
}

// ScanKeys iterates all keys matching pattern. Returns nil when the store is
// down or the scan fails mid-way.
func (s *Store) ScanKeys(ctx context.Context, pattern string) []string {
	if !s.Available(ctx) {
		return nil
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.markFailed(ctx, "scan", err)
		return nil
	}
	return keys
}

// DeleteByPattern removes every key matching pattern and returns the count.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) int {
	keys := s.ScanKeys(ctx, pattern)
	if len(keys) == 0 {
		return 0
	}
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		s.markFailed(ctx, "del", err)
		return 0
	}
	return int(deleted)
}

func (s *Store) CountKeys(ctx context.Context, pattern string) int {
	return len(s.ScanKeys(ctx, pattern))
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
