package textextract

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestExtractPlainText(t *testing.T) {
	got, err := Extract(b64("Nome: Maria\nCPF: 123"), FormatText)
	require.NoError(t, err)
	require.Equal(t, "Nome: Maria\nCPF: 123", got)

	// Empty format defaults to plain text.
	got, err = Extract(b64("linha"), "")
	require.NoError(t, err)
	require.Equal(t, "linha", got)
}

func TestExtractMarkdown(t *testing.T) {
	md := "# Cadastro\n\nNome: Maria Silva\n\n- CPF: 123.456.789-01\n- CEP: 01310-100\n"
	got, err := Extract(b64(md), FormatMarkdown)
	require.NoError(t, err)
	require.Equal(t, "Cadastro\nNome: Maria Silva\nCPF: 123.456.789-01\nCEP: 01310-100", got)
}

func TestExtractInvalidBase64(t *testing.T) {
	_, err := Extract("not base64!!!", FormatText)
	require.Error(t, err)
}

func TestExtractInvalidUTF8(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00})
	_, err := Extract(payload, FormatText)
	require.Error(t, err)
}

func TestExtractUnknownFormat(t *testing.T) {
	_, err := Extract(b64("texto"), "pdf")
	require.Error(t, err)
}

func TestFlattenMarkdownInlineMarkup(t *testing.T) {
	got := FlattenMarkdown("Nome: **Maria** _Silva_")
	require.Equal(t, "Nome: Maria Silva", got)
}

func TestFlattenMarkdownCodeBlockKeptLiteral(t *testing.T) {
	got := FlattenMarkdown("antes\n\n```\nvalor: 42\n```\n\ndepois")
	require.Equal(t, "antes\nvalor: 42\ndepois", got)
}
