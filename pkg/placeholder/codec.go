// Package placeholder maps concrete character and user names back to the
// {{char}} and {{user}} placeholders used in character-sheet templates.
package placeholder

import "regexp"

const (
	// Char is the placeholder standing in for the character name.
	Char = "{{char}}"
	// User is the placeholder standing in for the user name.
	User = "{{user}}"
)

// Codec restores placeholders for one character/user pair.
// The zero value performs no substitution.
type Codec struct {
	char *regexp.Regexp
	user *regexp.Regexp
}

// NewCodec compiles whole-word, case-sensitive matchers for both names.
// Empty names are skipped. Names are matched literally, so regex
// metacharacters in a name never change the pattern.
func NewCodec(characterName, userName string) *Codec {
	return &Codec{
		char: wordPattern(characterName),
		user: wordPattern(userName),
	}
}

func wordPattern(name string) *regexp.Regexp {
	if name == "" {
		return nil
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// Decode replaces every whole-word occurrence of the character name with {{char}},
// then every whole-word occurrence of the user name with {{user}}.
func (c *Codec) Decode(text string) string {
	if c == nil || text == "" {
		return text
	}
	if c.char != nil {
		text = c.char.ReplaceAllLiteralString(text, Char)
	}
	if c.user != nil {
		text = c.user.ReplaceAllLiteralString(text, User)
	}
	return text
}

// DecodeValue applies Decode to strings and element-wise to string lists.
// Any other value, including nil, is returned unchanged.
func (c *Codec) DecodeValue(v any) any {
	switch val := v.(type) {
	case string:
		return c.Decode(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = c.Decode(s)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			if s, ok := item.(string); ok {
				out[i] = c.Decode(s)
			} else {
				out[i] = item
			}
		}
		return out
	default:
		return v
	}
}

// Decode is a convenience wrapper around NewCodec(characterName, userName).Decode(text).
func Decode(text, characterName, userName string) string {
	return NewCodec(characterName, userName).Decode(text)
}
