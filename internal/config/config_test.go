package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"redis": {"addr": "127.0.0.1:6379"},
		"ai": {"provider": "openai", "model": "gpt-test", "embed_model": "embed-test", "args": {"api_key": "k"}},
		"cache": {"embedding_ttl_days": 15}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	require.Equal(t, 15, cfg.Cache.EmbeddingTTLDays)

	// Defaults.
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 1024, cfg.Cache.LRUSize)
	require.Equal(t, "*/5 * * * *", cfg.CacheProbeCron)
}

func TestLoadMissingPort(t *testing.T) {
	path := writeConfig(t, `{"redis": {"addr": "127.0.0.1:6379"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingRedisAddr(t *testing.T) {
	path := writeConfig(t, `{"port": 8080}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadProviderRequiresModels(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"redis": {"addr": "127.0.0.1:6379"},
		"ai": {"provider": "openai"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadProviderOptional(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "redis": {"addr": "127.0.0.1:6379"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.AI.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
