package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	text := `Nome: Maria Silva
CPF: 123.456.789-01
CNPJ: 12.345.678/0001-90
Telefone: (11) 98765-4321
Email: maria.silva@example.com.br
CEP: 01310-100
Data: 15/03/2024
Valor: R$ 1.234,56
Taxa: 2,5%`

	matches := Extract(text)

	cases := []struct {
		typ   Type
		value string
	}{
		{TypeCPF, "123.456.789-01"},
		{TypeCNPJ, "12.345.678/0001-90"},
		{TypePhone, "(11) 98765-4321"},
		{TypeEmail, "maria.silva@example.com.br"},
		{TypeCEP, "01310-100"},
		{TypeDate, "15/03/2024"},
		{TypeCurrency, "R$ 1.234,56"},
		{TypePercentage, "2,5%"},
	}
	for _, tc := range cases {
		value, ok := matches.First(tc.typ)
		require.True(t, ok, "type %s not found", tc.typ)
		require.Equal(t, tc.value, value)
	}
}

func TestExtractNoMatches(t *testing.T) {
	matches := Extract("texto sem nenhum dado estruturado")
	require.Empty(t, matches)

	_, ok := matches.First(TypeCPF)
	require.False(t, ok)
}

func TestExtractMultipleOccurrencesKeepOrder(t *testing.T) {
	matches := Extract("primeiro 111.222.333-44 depois 555.666.777-88")
	require.Equal(t, []string{"111.222.333-44", "555.666.777-88"}, matches[TypeCPF])

	first, ok := matches.First(TypeCPF)
	require.True(t, ok)
	require.Equal(t, "111.222.333-44", first)
}

func TestTypeFor(t *testing.T) {
	cases := []struct {
		name, desc string
		want       Type
		ok         bool
	}{
		{"cpf", "", TypeCPF, true},
		{"documento", "numero do CPF do cliente", TypeCPF, true},
		{"cnpj_empresa", "", TypeCNPJ, true},
		{"contato", "telefone para contato", TypePhone, true},
		{"email", "", TypeEmail, true},
		{"data_emissao", "", TypeDate, true},
		{"total", "valor total da nota", TypeCurrency, true},
		{"nome", "nome completo", "", false},
	}
	for _, tc := range cases {
		got, ok := TypeFor(tc.name, tc.desc)
		require.Equal(t, tc.ok, ok, "field %s", tc.name)
		require.Equal(t, tc.want, got, "field %s", tc.name)
	}
}

func TestTypeForKeywordPrecedence(t *testing.T) {
	// "cnpj" outranks "cpf" so "cnpj_ou_cpf" resolves structurally to CNPJ.
	got, ok := TypeFor("cnpj_ou_cpf", "")
	require.True(t, ok)
	require.Equal(t, TypeCNPJ, got)
}
