package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/model"
)

// FallbackClient asks an LLM to extract every schema field in one structured
// call. It is the expensive second attempt behind the sequential matcher.
type FallbackClient struct {
	generator ai.IGenerator
	timeout   time.Duration
}

func NewFallbackClient(generator ai.IGenerator, timeout time.Duration) *FallbackClient {
	if generator == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FallbackClient{generator: generator, timeout: timeout}
}

// ExtractFields returns one entry per schema field; a nil value means the
// model reported the field as absent. Keys the model invents are ignored.
func (f *FallbackClient) ExtractFields(ctx context.Context, schema model.Schema, text string) (map[string]*string, error) {
	if f == nil || f.generator == nil {
		return nil, ai.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var schemaLines strings.Builder
	for _, field := range schema {
		fmt.Fprintf(&schemaLines, "- %s: %s\n", field.Name, field.Description)
	}
	prompt := fmt.Sprintf(`You are a document data extraction assistant.
Extract the following fields from the text below.

FIELDS TO EXTRACT:
%s
TEXT:
%s

INSTRUCTIONS:
1. Return ONLY a valid JSON object.
2. Format: {"field": "value or null"}
3. Use null for fields not present in the text. Never omit a field.

JSON:`, schemaLines.String(), text)

	raw, err := f.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, err := parseFieldJSON(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*string, len(schema))
	for _, field := range schema {
		value, ok := parsed[field.Name]
		if !ok || value == nil {
			out[field.Name] = nil
			continue
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" || strings.EqualFold(trimmed, "null") {
			out[field.Name] = nil
			continue
		}
		out[field.Name] = &trimmed
	}
	return out, nil
}

// parseFieldJSON tolerates markdown fences and prose around the JSON object.
func parseFieldJSON(output string) (map[string]*string, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("parse fallback response: %w", err)
	}
	out := make(map[string]*string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			out[key] = nil
		case string:
			s := v
			out[key] = &s
		default:
			s := fmt.Sprintf("%v", v)
			out[key] = &s
		}
	}
	return out, nil
}
