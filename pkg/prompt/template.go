package prompt

// Template markers. Only the first occurrence of each is substituted.
const (
	MarkerFieldsList    = "{{FIELDS_LIST}}"
	MarkerCharacterJSON = "{{CHARACTER_JSON}}"
)

// DefaultTemplate is the stock rewrite instruction.
const DefaultTemplate = `You are an expert at converting character cards between narrative perspectives.

Task: Rewrite the provided character card from its current perspective (second-person or third-person) to first-person perspective.

Pronouns to use:
- I, me, my, mine, myself (for the character)
- We, us, our, ours (if applicable)

Rules:
PRIMARY OBJECTIVE: Focus ONLY on the PERSPECTIVE! Only change TENSE where necessary to reflect first-person POV.
1. Convert all references to the character from "he/she/they/you" to "I/my/me"
2. Convert all references to the user from "I/my/me" to "you"
3. Keep the character name unchanged
4. Preserve all metadata and formatting

Fields to Rewrite: {{FIELDS_LIST}}

IMPORTANT: Only rewrite the fields listed above. Return ONLY those fields in your JSON response.

Character Card JSON:
{{CHARACTER_JSON}}

Return ONLY a valid JSON object with the rewritten fields. Do not include any explanations or additional text.`
