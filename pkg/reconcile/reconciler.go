// Package reconcile merges normalized model fields into a PartialDocument.
package reconcile

import (
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/placeholder"
)

// Request carries everything needed to reconcile one model response.
type Request struct {
	// Fields is the normalized model output.
	Fields map[string]any
	// Original is the document that was rewritten. Its name is used when
	// CharacterName is empty.
	Original *domain.Document
	Selector domain.FieldSelector
	// CharacterName and UserName are restored to {{char}} and {{user}}.
	CharacterName string
	UserName      string
}

// Reconcile builds the PartialDocument for the enabled fields present in req.Fields.
// Disabled fields are never copied, even when the model returned them, and absent
// fields are left out so the caller's existing value survives. Reconcile performs no I/O.
func Reconcile(req Request) domain.PartialDocument {
	out := make(domain.PartialDocument)
	if len(req.Fields) == 0 {
		return out
	}

	charName := req.CharacterName
	if charName == "" && req.Original != nil {
		charName = req.Original.Name
	}
	codec := placeholder.NewCodec(charName, req.UserName)

	for _, f := range req.Selector.Enabled() {
		v, ok := req.Fields[string(f)]
		if !ok {
			continue
		}
		out[string(f)] = codec.DecodeValue(v)
	}
	return out
}
