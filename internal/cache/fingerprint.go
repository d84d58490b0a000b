package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/entersoft/smartextract/internal/model"
)

// hashPrefixLen truncates the hex digest used in cache keys. 160 bits is far
// beyond collision risk at this scale and keeps keys readable in redis-cli.
const hashPrefixLen = 40

// NormalizeText folds case and trims whitespace before hashing so that
// "Hello " and "hello" address the same cache slot. The normalized form is
// only ever used for key derivation, never returned to callers.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Fingerprint returns the truncated SHA-256 of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

// SchemaFingerprint hashes a canonical representation of the schema: fields
// sorted by name. Two requests with the same fields in different order hit
// the same extraction-cache entry, matching the historical key layout even
// though the matcher itself is order-sensitive.
func SchemaFingerprint(schema model.Schema) string {
	items := make([]string, 0, len(schema))
	for _, f := range schema {
		items = append(items, f.Name+"="+f.Description)
	}
	sort.Strings(items)
	sum := sha256.Sum256([]byte(strings.Join(items, "\n")))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

func embeddingKey(modelName, text string) string {
	return "embedding:" + modelName + ":" + Fingerprint(text)
}

func resultKey(label, text string, schema model.Schema) string {
	return "smart:" + label + ":" + Fingerprint(text) + ":" + SchemaFingerprint(schema)
}

func scoreKey(text, hypothesis string) string {
	return "nli:" + Fingerprint(text) + ":" + Fingerprint(hypothesis)
}
