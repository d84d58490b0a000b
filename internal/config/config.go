package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	LogConfig  logger.LogConfig `json:"log_config"`
	Redis      RedisConfig      `json:"redis"`
	AI         AIConfig         `json:"ai"`
	Cache      CacheConfig      `json:"cache"`
	Classifier EndpointConfig   `json:"classifier"`
	NER        EndpointConfig   `json:"ner"`
	CORS       []string         `json:"cors"`
	// RateLimitMS throttles extraction endpoints per client; 0 disables.
	RateLimitMS int `json:"rate_limit_ms"`
	// CacheProbeCron schedules the periodic redis health probe.
	CacheProbeCron string `json:"cache_probe_cron"`
}

type RedisConfig struct {
	Addr            string `json:"addr"`
	Password        string `json:"password"`
	DB              int    `json:"db"`
	DialTimeoutSec  int    `json:"dial_timeout_sec"`
	ReadTimeoutSec  int    `json:"read_timeout_sec"`
	WriteTimeoutSec int    `json:"write_timeout_sec"`
}

type AIConfig struct {
	Provider   string                 `json:"provider"`
	Model      string                 `json:"model"`
	EmbedModel string                 `json:"embed_model"`
	Timeout    int                    `json:"timeout"`
	Args       map[string]interface{} `json:"args"`
}

type CacheConfig struct {
	EmbeddingTTLDays int `json:"embedding_ttl_days"`
	ResultTTLDays    int `json:"result_ttl_days"`
	ScoreTTLDays     int `json:"score_ttl_days"`
	LRUSize          int `json:"lru_size"`
}

type EndpointConfig struct {
	Endpoint   string `json:"endpoint"`
	TimeoutSec int    `json:"timeout_sec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider != "" {
		if cfg.AI.Model == "" {
			return nil, fmt.Errorf("ai.model is required when ai.provider is set")
		}
		if cfg.AI.EmbedModel == "" {
			return nil, fmt.Errorf("ai.embed_model is required when ai.provider is set")
		}
	}
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 1024
	}
	if cfg.CacheProbeCron == "" {
		cfg.CacheProbeCron = "*/5 * * * *"
	}
	return &cfg, nil
}
