package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entersoft/smartextract/internal/matcher"
	"github.com/entersoft/smartextract/internal/model"
	"github.com/entersoft/smartextract/internal/pkg/errs"
)

func TestSemanticExtract(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"nome do profissional": {1, 0, 0},
		"número de inscrição":  {0, 1, 0},
		"JOANA D'ARC":          {1, 0, 0},
		"101943":               {0, 1, 0},
	}}
	svc := NewSemanticService(matcher.New(embedder))
	schema := model.Schema{
		{Name: "nome", Description: "nome do profissional"},
		{Name: "inscricao", Description: "número de inscrição"},
	}

	got, err := svc.Extract(context.Background(), schema, "JOANA D'ARC\nInscrição: 101943\nPR",
		SemanticOptions{TopK: 2, SimilarityThreshold: 0.5})
	require.NoError(t, err)
	require.Equal(t, "fake-model", got.Model)
	require.Len(t, got.Results, 2)

	nome := got.Results[0]
	require.Equal(t, "nome", nome.Label)
	require.Equal(t, "nome do profissional", nome.Description)
	require.Len(t, nome.TopMatches, 1)
	require.Equal(t, "JOANA D'ARC", nome.BestMatch)
	require.InDelta(t, 1.0, nome.BestScore, 1e-6)
	require.Equal(t, 1, nome.TopMatches[0].Rank)

	inscricao := got.Results[1]
	require.Equal(t, "101943", inscricao.BestMatch)

	require.Equal(t, map[string]string{"nome": "JOANA D'ARC", "inscricao": "101943"}, got.Summary)
}

func TestSemanticExtractBelowThresholdKeepsBest(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"unidade da federação": {1, 0, 0},
		"PR":                   {0.5, 0.5, 0},
	}}
	svc := NewSemanticService(matcher.New(embedder))
	schema := model.Schema{{Name: "uf", Description: "unidade da federação"}}

	got, err := svc.Extract(context.Background(), schema, "PR", SemanticOptions{SimilarityThreshold: 0.9})
	require.NoError(t, err)
	require.Len(t, got.Results[0].TopMatches, 1)
	require.Equal(t, "PR", got.Results[0].BestMatch)
	require.Less(t, got.Results[0].BestScore, 0.9)
	require.Equal(t, 1, got.Results[0].TopMatches[0].Rank)
}

func TestSemanticExtractValidation(t *testing.T) {
	svc := NewSemanticService(matcher.New(testEmbedder()))

	_, err := svc.Extract(context.Background(), model.Schema{}, "texto", SemanticOptions{})
	require.ErrorIs(t, err, errs.ErrInvalid)

	_, err = svc.Extract(context.Background(), testSchema(), "  \n ", SemanticOptions{})
	require.ErrorIs(t, err, errs.ErrEmptyDocument)
}

func TestSemanticExtractNoEmbedder(t *testing.T) {
	svc := NewSemanticService(matcher.New(nil))

	_, err := svc.Extract(context.Background(), testSchema(), "algum texto", SemanticOptions{})
	require.ErrorIs(t, err, errs.ErrAIUnavailable)

	_, err = svc.DetectLabels(context.Background(), testSchema(), "algum texto", SemanticOptions{})
	require.ErrorIs(t, err, errs.ErrAIUnavailable)
}

func TestSemanticDetectLabels(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"nome completo da pessoa": {1, 0, 0},
		"número do CPF":           {0, 1, 0},
		"Nome Completo:":          {1, 0, 0},
		"CPF:":                    {0, 1, 0},
	}}
	svc := NewSemanticService(matcher.New(embedder))
	schema := model.Schema{
		{Name: "nome", Description: "nome completo da pessoa"},
		{Name: "cpf", Description: "número do CPF"},
	}

	got, err := svc.DetectLabels(context.Background(), schema, "Nome Completo:\nJOANA D'ARC\nCPF: 123.456.789-00", SemanticOptions{})
	require.NoError(t, err)
	require.Equal(t, "fake-model", got.Model)

	require.Equal(t, map[string]string{"Nome Completo:": "nome", "CPF:": "cpf"}, got.Summary)
	require.Len(t, got.Detected, 2)
	require.Equal(t, "Nome Completo:", got.Detected[0].Candidate)
	require.Equal(t, "nome", got.Detected[0].Label)
	require.InDelta(t, 1.0, got.Detected[0].Score, 1e-6)
	require.Equal(t, 1, got.Detected[0].Rank)
}

func TestSemanticDetectLabelsThreshold(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"nome completo da pessoa": {1, 0, 0},
		"Nome:":                   {0.6, 0.8, 0},
	}}
	svc := NewSemanticService(matcher.New(embedder))
	schema := model.Schema{{Name: "nome", Description: "nome completo da pessoa"}}

	// Score 0.6 clears the default floor but not a stricter one.
	got, err := svc.DetectLabels(context.Background(), schema, "Nome:", SemanticOptions{})
	require.NoError(t, err)
	require.Len(t, got.Detected, 1)

	got, err = svc.DetectLabels(context.Background(), schema, "Nome:", SemanticOptions{SimilarityThreshold: 0.7})
	require.NoError(t, err)
	require.Empty(t, got.Detected)
	require.Empty(t, got.Summary)
}
