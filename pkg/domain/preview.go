package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldChange is the old and new value of one rewritten field.
type FieldChange struct {
	Field   Field  `json:"field"`
	Label   string `json:"label"`
	Old     any    `json:"old"`
	New     any    `json:"new"`
	Changed bool   `json:"changed"`
}

// Preview is the human-facing comparison offered before a rewrite is committed.
type Preview struct {
	Changes []FieldChange `json:"changes"`
}

// NewPreview compares the partial document against the original.
// If original is nil, every field is reported as changed.
func NewPreview(original *Document, partial PartialDocument) *Preview {
	p := &Preview{Changes: make([]FieldChange, 0, len(partial))}
	for _, f := range partial.Fields() {
		newVal := partial[string(f)]
		var oldVal any
		if original != nil {
			oldVal = original.Value(f)
		}
		p.Changes = append(p.Changes, FieldChange{
			Field:   f,
			Label:   f.Label(),
			Old:     oldVal,
			New:     newVal,
			Changed: original == nil || !sameValue(oldVal, newVal),
		})
	}
	return p
}

// IsEmpty reports whether the preview contains no fields at all.
func (p *Preview) IsEmpty() bool {
	return p == nil || len(p.Changes) == 0
}

// ChangedCount returns how many fields differ from the original.
func (p *Preview) ChangedCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, c := range p.Changes {
		if c.Changed {
			n++
		}
	}
	return n
}

// Markdown renders the rewritten fields as a markdown document, one section per field.
func (p *Preview) Markdown() string {
	var b strings.Builder
	b.WriteString("# Preview Rewritten Character Card\n\n")
	if p.IsEmpty() {
		b.WriteString("_No fields were rewritten._\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Review the rewritten content below (%d of %d fields changed).\n\n", p.ChangedCount(), len(p.Changes))
	for _, c := range p.Changes {
		fmt.Fprintf(&b, "## %s\n\n", c.Label)
		if !c.Changed {
			b.WriteString("_unchanged_\n\n")
		}
		b.WriteString(renderValue(c.New))
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return renderList(len(val), func(i int) string { return val[i] })
	case []any:
		return renderList(len(val), func(i int) string { return fmt.Sprint(val[i]) })
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func renderList(n int, item func(int) string) string {
	if n == 0 {
		return "_none_"
	}
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item(i)))
	}
	return strings.Join(lines, "\n")
}

// sameValue compares a document value against a decoded model value.
// Model arrays arrive as []any, document arrays as []string.
func sameValue(oldVal, newVal any) bool {
	if oldList, ok := oldVal.([]string); ok {
		if newList, ok := newVal.([]any); ok {
			if len(oldList) != len(newList) {
				return false
			}
			for i := range oldList {
				s, ok := newList[i].(string)
				if !ok || s != oldList[i] {
					return false
				}
			}
			return true
		}
	}
	return reflect.DeepEqual(oldVal, newVal)
}
