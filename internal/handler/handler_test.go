package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/entersoft/smartextract/internal/cache"
	"github.com/entersoft/smartextract/internal/matcher"
	"github.com/entersoft/smartextract/internal/service"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = f.Embed(ctx, text)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-model"
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	store := cache.NewStore(cache.StoreConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	embeddings := cache.NewEmbeddingCache(store, "fake-model", time.Hour, 16)
	results := cache.NewResultCache(store, time.Hour)
	scores := cache.NewScoreCache(store, time.Hour)

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"nome completo da pessoa": {1, 0, 0},
		"Nome: Maria Silva":       {1, 0, 0},
		"Nome:":                   {1, 0, 0},
	}}
	m := matcher.New(embedder)
	extractService := service.NewExtractService(m, results, nil, nil)
	semanticService := service.NewSemanticService(m)
	classifyService := service.NewClassifyService(nil, scores)

	engine := gin.New()
	api := engine.Group("/api/v1")
	RegisterRoutes(api, RouterDeps{
		Extract:  NewExtractHandler(extractService),
		Semantic: NewSemanticHandler(semanticService),
		Classify: NewClassifyHandler(classifyService),
		Cache:    NewCacheHandler(store, embeddings, results, scores),
		Text:     NewTextHandler(),
	})
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	engine := setupRouter(t)
	w := doRequest(engine, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestSmartExtractEndpoint(t *testing.T) {
	engine := setupRouter(t)
	body := `{
		"label": "cadastro",
		"text": "Nome: Maria Silva\nCPF: 123.456.789-01",
		"schema": {"nome": "nome completo da pessoa", "cpf": "numero do cpf"}
	}`
	w := doRequest(engine, http.MethodPost, "/api/v1/smart-extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Maria Silva")
	require.Contains(t, w.Body.String(), "123.456.789-01")
}

func TestSmartExtractRejectsEmptySchema(t *testing.T) {
	engine := setupRouter(t)
	body := `{"text": "algum texto", "schema": {}}`
	w := doRequest(engine, http.MethodPost, "/api/v1/smart-extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "fields")
}

func TestSmartExtractRejectsBadJSON(t *testing.T) {
	engine := setupRouter(t)
	w := doRequest(engine, http.MethodPost, "/api/v1/smart-extract", "{not json")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "fields")
}

func TestExtractTextEndpoint(t *testing.T) {
	engine := setupRouter(t)
	content := base64.StdEncoding.EncodeToString([]byte("# Titulo\n\nNome: Maria"))
	body := `{"content": "` + content + `", "format": "markdown"}`
	w := doRequest(engine, http.MethodPost, "/api/v1/extract-text", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Nome: Maria")
}

func TestClassifyUnavailable(t *testing.T) {
	engine := setupRouter(t)
	body := `{"text": "bloco", "candidate_labels": ["a", "b"]}`
	w := doRequest(engine, http.MethodPost, "/api/v1/classify/zero-shot", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "scores")
}

func TestCacheStatsAndHealth(t *testing.T) {
	engine := setupRouter(t)

	w := doRequest(engine, http.MethodGet, "/api/v1/cache/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "redis_available")

	w = doRequest(engine, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cached_count")
}

func TestCacheClearEndpoint(t *testing.T) {
	engine := setupRouter(t)
	w := doRequest(engine, http.MethodPost, "/api/v1/cache/clear", `{"scope": "all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cleared")

	w = doRequest(engine, http.MethodPost, "/api/v1/cache/clear", `{"scope": "banana"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "cleared")
}

func TestSemanticExtractEndpoint(t *testing.T) {
	engine := setupRouter(t)
	body := `{
		"labels": {"nome": "nome completo da pessoa"},
		"text": "Nome: Maria Silva\nCPF: 123.456.789-01",
		"similarity_threshold": 0.5
	}`
	w := doRequest(engine, http.MethodPost, "/api/v1/semantic-extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "extraction_summary")
	require.Contains(t, w.Body.String(), "Nome: Maria Silva")
}

func TestSemanticExtractRejectsEmptyLabels(t *testing.T) {
	engine := setupRouter(t)
	body := `{"labels": {}, "text": "algum texto"}`
	w := doRequest(engine, http.MethodPost, "/api/v1/semantic-extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "extraction_summary")
}

func TestSemanticLabelDetectEndpoint(t *testing.T) {
	engine := setupRouter(t)
	body := `{
		"labels": {"nome": "nome completo da pessoa"},
		"text": "Nome:\nMaria Silva"
	}`
	w := doRequest(engine, http.MethodPost, "/api/v1/semantic-label-detect", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "labels_summary")
	require.Contains(t, w.Body.String(), "matched_label")
}

func TestClassifyValidateUnavailable(t *testing.T) {
	engine := setupRouter(t)
	body := `{"text": "JOANA", "category": "nome de pessoa"}`
	w := doRequest(engine, http.MethodPost, "/api/v1/classify/validate", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "is_category")
}
