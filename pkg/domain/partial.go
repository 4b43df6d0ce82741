package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// PartialDocument maps field names to rewritten values.
// Keys are limited to the fields enabled for the rewrite that produced it.
type PartialDocument map[string]any

// Fields returns the fields present in the partial document, in declaration order.
func (p PartialDocument) Fields() []Field {
	out := make([]Field, 0, len(p))
	for _, f := range AllFields {
		if _, ok := p[string(f)]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the value stored for a field.
func (p PartialDocument) Get(f Field) (any, bool) {
	v, ok := p[string(f)]
	return v, ok
}

// Restrict drops every key that is not a rewritable field enabled in the selector.
func (p PartialDocument) Restrict(sel FieldSelector) PartialDocument {
	out := make(PartialDocument, len(p))
	for _, f := range sel.Enabled() {
		if v, ok := p[string(f)]; ok {
			out[string(f)] = v
		}
	}
	return out
}

// ApplyTo merges the partial document onto a copy of doc.
// Fields missing from the partial keep their existing value. Values are decoded
// weakly, so a model answering a number where a string is expected still merges.
func (p PartialDocument) ApplyTo(doc *Document) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document to merge into", ErrConfiguration)
	}
	merged := doc.Clone()

	input := make(map[string]any, len(p))
	for _, f := range p.Fields() {
		input[string(f)] = p[string(f)]
	}
	// Greetings replace the list wholesale instead of patching it element by element.
	// A null answer keeps the stored list, like every other field.
	if v, ok := input[string(FieldAlternateGreetings)]; ok && v != nil {
		merged.AlternateGreetings = nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           merged,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create merge decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("failed to merge rewritten fields: %w", err)
	}
	return merged, nil
}
