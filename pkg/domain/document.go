package domain

// Field identifies one of the rewritable document fields.
type Field string

const (
	FieldDescription        Field = "description"
	FieldPersonality        Field = "personality"
	FieldFirstMes           Field = "first_mes"
	FieldMesExample         Field = "mes_example"
	FieldAlternateGreetings Field = "alternate_greetings"
)

// KeyName is the payload key that always accompanies a prompt for disambiguation.
const KeyName = "name"

// AllFields lists the rewritable fields in declaration order.
// Prompt payloads, field lists and previews all follow this order.
var AllFields = []Field{
	FieldDescription,
	FieldPersonality,
	FieldFirstMes,
	FieldMesExample,
	FieldAlternateGreetings,
}

// Label returns a human readable title for the field.
func (f Field) Label() string {
	switch f {
	case FieldDescription:
		return "Description"
	case FieldPersonality:
		return "Personality"
	case FieldFirstMes:
		return "First Message"
	case FieldMesExample:
		return "Example Messages"
	case FieldAlternateGreetings:
		return "Alternate Greetings"
	default:
		return string(f)
	}
}

// ParseField converts a field name into a Field.
// The second return value is false for names outside the five rewritable fields.
func ParseField(name string) (Field, bool) {
	for _, f := range AllFields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Document is a character sheet.
// The core only ever reads it; rewrites are expressed as a PartialDocument.
type Document struct {
	Name                    string   `json:"name" yaml:"name" mapstructure:"name"`
	Description             string   `json:"description" yaml:"description" mapstructure:"description"`
	Personality             string   `json:"personality" yaml:"personality" mapstructure:"personality"`
	Scenario                string   `json:"scenario" yaml:"scenario" mapstructure:"scenario"`
	FirstMes                string   `json:"first_mes" yaml:"first_mes" mapstructure:"first_mes"`
	MesExample              string   `json:"mes_example" yaml:"mes_example" mapstructure:"mes_example"`
	AlternateGreetings      []string `json:"alternate_greetings" yaml:"alternate_greetings" mapstructure:"alternate_greetings"`
	CreatorNotes            string   `json:"creator_notes" yaml:"creator_notes" mapstructure:"creator_notes"`
	PostHistoryInstructions string   `json:"post_history_instructions" yaml:"post_history_instructions" mapstructure:"post_history_instructions"`
	SystemPrompt            string   `json:"system_prompt" yaml:"system_prompt" mapstructure:"system_prompt"`
	Tags                    []string `json:"tags" yaml:"tags" mapstructure:"tags"`
}

// Value returns the current value of a rewritable field.
// Alternate greetings are returned as a non-nil slice.
func (d *Document) Value(f Field) any {
	switch f {
	case FieldDescription:
		return d.Description
	case FieldPersonality:
		return d.Personality
	case FieldFirstMes:
		return d.FirstMes
	case FieldMesExample:
		return d.MesExample
	case FieldAlternateGreetings:
		if d.AlternateGreetings == nil {
			return []string{}
		}
		return d.AlternateGreetings
	default:
		return nil
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	if d.AlternateGreetings != nil {
		c.AlternateGreetings = append([]string(nil), d.AlternateGreetings...)
	}
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	return &c
}
