package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entersoft/smartextract/internal/pkg/errs"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *openAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &openAIProvider{apiKey: "test-key", baseURL: server.URL}
}

func TestOpenAIGenerate(t *testing.T) {
	provider := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 1)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  resposta  "}},
			},
		})
	})

	out, err := provider.Generate(context.Background(), "gpt-test", "prompt")
	require.NoError(t, err)
	require.Equal(t, "resposta", out)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	provider := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := provider.Generate(context.Background(), "gpt-test", "prompt")
	require.Error(t, err)
}

func TestOpenAIEmbedBatchHonorsIndexes(t *testing.T) {
	provider := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"um", "dois"}, req.Input)

		// Out of order on purpose.
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{2, 2}},
				{"index": 0, "embedding": []float32{1, 1}},
			},
		})
	})

	vectors, err := provider.EmbedBatch(context.Background(), "embed-test", []string{"um", "dois"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 1}, {2, 2}}, vectors)
}

func TestOpenAIEmbedBatchCountMismatch(t *testing.T) {
	provider := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{1}},
			},
		})
	})

	_, err := provider.EmbedBatch(context.Background(), "embed-test", []string{"um", "dois"})
	require.ErrorIs(t, err, errs.ErrBatchMismatch)
}

func TestOpenAIHTTPErrorSurfaced(t *testing.T) {
	provider := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := provider.Generate(context.Background(), "gpt-test", "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAIWithoutKeyUnavailable(t *testing.T) {
	provider := &openAIProvider{baseURL: defaultOpenAIBaseURL}

	_, err := provider.Generate(context.Background(), "gpt-test", "prompt")
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = provider.EmbedBatch(context.Background(), "embed-test", []string{"a"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestProviderRegistry(t *testing.T) {
	provider, err := NewProvider("OpenAI", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "openai", provider.Name())

	_, err = NewProvider("unknown", nil)
	require.Error(t, err)

	_, err = NewProvider("", nil)
	require.Error(t, err)
}
