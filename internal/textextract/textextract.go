package textextract

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/entersoft/smartextract/internal/pkg/errs"
)

// Format names accepted by Extract.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Extract decodes a base64 document payload and returns its plain-text
// content. Markdown payloads are parsed and flattened so the matcher sees
// line-oriented prose instead of markup.
func Extract(payload string, format string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", fmt.Errorf("decode document payload: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("document is not valid utf-8 text: %w", errs.ErrInvalid)
	}
	switch format {
	case "", FormatText:
		return string(raw), nil
	case FormatMarkdown:
		return FlattenMarkdown(string(raw)), nil
	default:
		return "", fmt.Errorf("unsupported document format %q: %w", format, errs.ErrInvalid)
	}
}

// FlattenMarkdown renders markdown to plain text, one block per line.
// Fenced code blocks keep their literal content; inline markup is dropped.
func FlattenMarkdown(markdown string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var lines []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(reader.Source()))
			}
			if block := strings.TrimRight(sb.String(), "\n"); block != "" {
				lines = append(lines, block)
			}
		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if txt := nodeText(item, reader.Source()); txt != "" {
					lines = append(lines, txt)
				}
			}
		default:
			if txt := nodeText(node, reader.Source()); txt != "" {
				lines = append(lines, txt)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			t := node.(*ast.Text)
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
