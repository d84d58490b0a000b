// Package pattern extracts well known structured value formats (tax IDs,
// contact data, dates, money) from raw text with fixed regular expressions.
// It is deterministic and cheap, so results are never cached.
package pattern

import (
	"regexp"
	"strings"
)

type Type string

const (
	TypeCPF        Type = "cpf"
	TypeCNPJ       Type = "cnpj"
	TypePhone      Type = "phone"
	TypeEmail      Type = "email"
	TypeCEP        Type = "cep"
	TypeDate       Type = "date"
	TypeCurrency   Type = "currency"
	TypePercentage Type = "percentage"
)

var bank = map[Type]*regexp.Regexp{
	TypeCPF:        regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`),
	TypeCNPJ:       regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b`),
	TypePhone:      regexp.MustCompile(`\(?\d{2}\)?\s*\d{4,5}-?\d{4}`),
	TypeEmail:      regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	TypeCEP:        regexp.MustCompile(`\b\d{5}-\d{3}\b`),
	TypeDate:       regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
	TypeCurrency:   regexp.MustCompile(`R\$\s*\d{1,3}(?:\.\d{3})*(?:,\d{2})?`),
	TypePercentage: regexp.MustCompile(`\d+(?:,\d+)?%`),
}

type keywordRule struct {
	keyword string
	typ     Type
}

// keywords maps field name / description tokens to a pattern type. The matcher
// uses this to decide that a field should be resolved structurally instead of
// by similarity. Order matters: the first matching keyword wins.
var keywords = []keywordRule{
	{"cnpj", TypeCNPJ},
	{"cpf", TypeCPF},
	{"telefone", TypePhone},
	{"celular", TypePhone},
	{"fone", TypePhone},
	{"phone", TypePhone},
	{"e-mail", TypeEmail},
	{"email", TypeEmail},
	{"cep", TypeCEP},
	{"data", TypeDate},
	{"date", TypeDate},
	{"valor", TypeCurrency},
	{"preco", TypeCurrency},
	{"percentual", TypePercentage},
	{"taxa", TypePercentage},
}

// Matches holds every structured value found in a document, ordered by
// position of occurrence per type.
type Matches map[Type][]string

// Extract scans text against the full bank. It always returns a usable map,
// empty types are simply absent.
func Extract(text string) Matches {
	out := Matches{}
	for typ, re := range bank {
		found := re.FindAllString(text, -1)
		if len(found) > 0 {
			out[typ] = found
		}
	}
	return out
}

// First returns the first occurrence of the given type, if any.
func (m Matches) First(typ Type) (string, bool) {
	values := m[typ]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// TypeFor reports the pattern type implied by a field's name or description,
// matching the keyword list case-insensitively by substring.
func TypeFor(fieldName, fieldDescription string) (Type, bool) {
	name := strings.ToLower(fieldName)
	desc := strings.ToLower(fieldDescription)
	for _, rule := range keywords {
		if strings.Contains(name, rule.keyword) || strings.Contains(desc, rule.keyword) {
			return rule.typ, true
		}
	}
	return "", false
}
