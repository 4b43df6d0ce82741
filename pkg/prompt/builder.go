// Package prompt renders the rewrite instruction sent to the model.
package prompt

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/povrewrite/pkg/domain"
)

// Build renders template with the enabled field list and the filtered document payload.
// A template may omit either marker; the corresponding data is then simply absent.
// Build never fails.
func Build(doc *domain.Document, sel domain.FieldSelector, template string) string {
	out := strings.Replace(template, MarkerFieldsList, sel.String(), 1)
	if strings.Contains(out, MarkerCharacterJSON) {
		out = strings.Replace(out, MarkerCharacterJSON, Payload(doc, sel), 1)
	}
	return out
}

// Payload serializes the name plus every enabled field as 2-space indented JSON.
// Keys follow declaration order, with name first.
func Payload(doc *domain.Document, sel domain.FieldSelector) string {
	if doc == nil {
		doc = &domain.Document{}
	}

	var b strings.Builder
	b.WriteString("{\n")
	writeEntry(&b, domain.KeyName, doc.Name)
	for _, f := range sel.Enabled() {
		b.WriteString(",\n")
		writeEntry(&b, string(f), doc.Value(f))
	}
	b.WriteString("\n}")
	return b.String()
}

func writeEntry(b *strings.Builder, key string, value any) {
	b.WriteString("  ")
	b.WriteString(encode(key))
	b.WriteString(": ")
	b.WriteString(encode(value))
}

// encode marshals v for embedding one level deep, without HTML escaping,
// so that "<" and "&" reach the model verbatim.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(v); err != nil {
		// Only strings and string slices reach here.
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// EstimateTokens approximates the token count of text as ceil(length/4).
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / 4))
}

// MissingMarkers lists the markers template lacks.
func MissingMarkers(template string) []string {
	var missing []string
	for _, m := range []string{MarkerFieldsList, MarkerCharacterJSON} {
		if !strings.Contains(template, m) {
			missing = append(missing, m)
		}
	}
	return missing
}
