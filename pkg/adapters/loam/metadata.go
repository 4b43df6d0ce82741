package loam

import "github.com/aretw0/povrewrite/pkg/domain"

// CardMetadata is the frontmatter of a character card file.
// The description lives in the markdown body, everything else in the header.
type CardMetadata struct {
	Name                    string   `json:"name" mapstructure:"name"`
	Personality             string   `json:"personality,omitempty" mapstructure:"personality"`
	Scenario                string   `json:"scenario,omitempty" mapstructure:"scenario"`
	FirstMes                string   `json:"first_mes,omitempty" mapstructure:"first_mes"`
	MesExample              string   `json:"mes_example,omitempty" mapstructure:"mes_example"`
	AlternateGreetings      []string `json:"alternate_greetings,omitempty" mapstructure:"alternate_greetings"`
	CreatorNotes            string   `json:"creator_notes,omitempty" mapstructure:"creator_notes"`
	PostHistoryInstructions string   `json:"post_history_instructions,omitempty" mapstructure:"post_history_instructions"`
	SystemPrompt            string   `json:"system_prompt,omitempty" mapstructure:"system_prompt"`
	Tags                    []string `json:"tags,omitempty" mapstructure:"tags"`
}

func toMetadata(doc *domain.Document) CardMetadata {
	return CardMetadata{
		Name:                    doc.Name,
		Personality:             doc.Personality,
		Scenario:                doc.Scenario,
		FirstMes:                doc.FirstMes,
		MesExample:              doc.MesExample,
		AlternateGreetings:      doc.AlternateGreetings,
		CreatorNotes:            doc.CreatorNotes,
		PostHistoryInstructions: doc.PostHistoryInstructions,
		SystemPrompt:            doc.SystemPrompt,
		Tags:                    doc.Tags,
	}
}

func toDocument(meta CardMetadata, body string) *domain.Document {
	return &domain.Document{
		Name:                    meta.Name,
		Description:             body,
		Personality:             meta.Personality,
		Scenario:                meta.Scenario,
		FirstMes:                meta.FirstMes,
		MesExample:              meta.MesExample,
		AlternateGreetings:      append([]string(nil), meta.AlternateGreetings...),
		CreatorNotes:            meta.CreatorNotes,
		PostHistoryInstructions: meta.PostHistoryInstructions,
		SystemPrompt:            meta.SystemPrompt,
		Tags:                    append([]string(nil), meta.Tags...),
	}
}
