package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Extraction methods reported per field.
const (
	MethodPattern     = "pattern"
	MethodEmbedding   = "embedding"
	MethodLLMFallback = "llm_fallback"
	MethodUnresolved  = "unresolved"
	MethodCached      = "cached"
)

type SchemaField struct {
	Name        string
	Description string
}

// Schema is an ordered field list. The request order drives the sequential
// matcher, so it must survive JSON decoding; a plain map would lose it.
type Schema []SchemaField

func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("schema must be a json object")
	}
	fields := make(Schema, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema key must be a string")
		}
		var description string
		if err := dec.Decode(&description); err != nil {
			return fmt.Errorf("schema value for %q must be a string: %w", name, err)
		}
		fields = append(fields, SchemaField{Name: name, Description: description})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = fields
	return nil
}

func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		desc, err := json.Marshal(f.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(desc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// MatchResult is the per-field outcome of one extraction run. LineIndex is the
// absolute index of the source line, or -1 when the value is not line-addressed
// (pattern hits, fallback values, unresolved fields).
type MatchResult struct {
	Field      string  `json:"field"`
	Value      string  `json:"value"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	LineIndex  int     `json:"line_index"`
}

// ExtractionRecord is the cacheable shape of a finished extraction. Per-field
// method and line provenance are dropped here on purpose: the cached path
// serves values only.
type ExtractionRecord struct {
	Fields     map[string]*string `json:"fields"`
	Confidence float64            `json:"confidence"`
}

func RecordFromResults(results []MatchResult, confidence float64) *ExtractionRecord {
	fields := make(map[string]*string, len(results))
	for _, r := range results {
		if r.Found {
			v := r.Value
			fields[r.Field] = &v
			continue
		}
		fields[r.Field] = nil
	}
	return &ExtractionRecord{Fields: fields, Confidence: confidence}
}

// Entity is a named entity reported by the external NER provider.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}
