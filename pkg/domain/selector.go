package domain

import "strings"

// FieldSelector records which fields participate in a rewrite.
type FieldSelector struct {
	Description        bool `json:"description" yaml:"description" mapstructure:"description"`
	Personality        bool `json:"personality" yaml:"personality" mapstructure:"personality"`
	FirstMes           bool `json:"first_mes" yaml:"first_mes" mapstructure:"first_mes"`
	MesExample         bool `json:"mes_example" yaml:"mes_example" mapstructure:"mes_example"`
	AlternateGreetings bool `json:"alternate_greetings" yaml:"alternate_greetings" mapstructure:"alternate_greetings"`
}

// DefaultFieldSelector enables every rewritable field.
var DefaultFieldSelector = FieldSelector{
	Description:        true,
	Personality:        true,
	FirstMes:           true,
	MesExample:         true,
	AlternateGreetings: true,
}

// SelectFields builds a selector enabling only the given fields.
func SelectFields(fields ...Field) FieldSelector {
	var s FieldSelector
	for _, f := range fields {
		s.Set(f, true)
	}
	return s
}

// Has reports whether the field is enabled.
func (s FieldSelector) Has(f Field) bool {
	switch f {
	case FieldDescription:
		return s.Description
	case FieldPersonality:
		return s.Personality
	case FieldFirstMes:
		return s.FirstMes
	case FieldMesExample:
		return s.MesExample
	case FieldAlternateGreetings:
		return s.AlternateGreetings
	default:
		return false
	}
}

// Set toggles a field. Unknown fields are ignored.
func (s *FieldSelector) Set(f Field, enabled bool) {
	switch f {
	case FieldDescription:
		s.Description = enabled
	case FieldPersonality:
		s.Personality = enabled
	case FieldFirstMes:
		s.FirstMes = enabled
	case FieldMesExample:
		s.MesExample = enabled
	case FieldAlternateGreetings:
		s.AlternateGreetings = enabled
	}
}

// Enabled returns the enabled fields in declaration order.
func (s FieldSelector) Enabled() []Field {
	out := make([]Field, 0, len(AllFields))
	for _, f := range AllFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// None reports whether no field is enabled.
func (s FieldSelector) None() bool {
	return len(s.Enabled()) == 0
}

// String renders the enabled fields as a comma separated list.
func (s FieldSelector) String() string {
	names := make([]string, 0, len(AllFields))
	for _, f := range s.Enabled() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
