// Package normalize recovers a JSON object from loosely structured model output.
//
// Models wrap their answer in prose, markdown fences or provider envelopes. The
// Normalizer unwraps chat-completion envelopes and then runs an ordered list of
// extraction strategies, stopping at the first one that yields an object. It never
// fabricates data: when nothing usable is found it fails with a NormalizationError.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/domain"
)

// Result is a normalized model response.
type Result struct {
	// Fields is the recovered JSON object.
	Fields map[string]any
	// Strategy names the step that produced Fields.
	Strategy string
	// Envelope is true when the text came from a chat-completion envelope.
	Envelope bool
	// UsedReasoning is true when the envelope had no content and reasoning was used instead.
	UsedReasoning bool
}

// Normalizer turns raw model responses into field maps.
type Normalizer struct {
	strategies     []Strategy
	allowReasoning bool
	logger         *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used to trace the cascade.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithStrategies replaces the text strategy cascade.
func WithStrategies(strategies ...Strategy) Option {
	return func(n *Normalizer) {
		n.strategies = strategies
	}
}

// WithReasoningFallback controls whether message.reasoning is used when
// message.content is missing or empty. Enabled by default.
func WithReasoningFallback(enabled bool) Option {
	return func(n *Normalizer) {
		n.allowReasoning = enabled
	}
}

// New creates a Normalizer with the default cascade.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		strategies:     TextStrategies,
		allowReasoning: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logging.NewNop()
	}
	return n
}

var defaultNormalizer = New()

// Normalize runs the default Normalizer.
func Normalize(raw any) (*Result, error) {
	return defaultNormalizer.Normalize(raw)
}

// Normalize accepts a string, []byte, json.RawMessage or decoded JSON object.
func (n *Normalizer) Normalize(raw any) (*Result, error) {
	switch v := raw.(type) {
	case string:
		return n.fromString(v)
	case []byte:
		return n.fromString(string(v))
	case json.RawMessage:
		return n.fromString(string(v))
	case map[string]any:
		return n.fromObject(v)
	default:
		n.logger.Warn("Unexpected response type", "type", typeName(raw))
		return nil, &domain.NormalizationError{Reason: domain.ReasonInvalidFormat}
	}
}

func (n *Normalizer) fromString(s string) (*Result, error) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		n.logger.Debug("Response is not JSON, searching text", "err", err, "length", len(s))
		return n.fromText(s, false, false)
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return n.fromText(s, false, false)
	}
	if text, reasoning, ok := n.unwrapEnvelope(obj); ok {
		return n.fromText(text, true, reasoning)
	}
	return &Result{Fields: obj, Strategy: StrategyDirect}, nil
}

func (n *Normalizer) fromObject(obj map[string]any) (*Result, error) {
	if obj == nil {
		return nil, &domain.NormalizationError{Reason: domain.ReasonInvalidFormat}
	}
	if text, reasoning, ok := n.unwrapEnvelope(obj); ok {
		return n.fromText(text, true, reasoning)
	}
	if _, ok := obj[string(domain.FieldDescription)]; ok {
		return &Result{Fields: knownFields(obj), Strategy: StrategyObject}, nil
	}
	n.logger.Warn("Response object is missing expected fields", "keys", keys(obj))
	return nil, &domain.NormalizationError{Reason: domain.ReasonMissingFields}
}

// fromText runs the strategy cascade over the effective text.
func (n *Normalizer) fromText(text string, envelope, reasoning bool) (*Result, error) {
	var errs []error
	notObject := false
	for _, st := range n.strategies {
		fields, err := st.Extract(text)
		if err == nil {
			n.logger.Debug("Extracted JSON from response", "strategy", st.Name, "keys", keys(fields))
			return &Result{Fields: fields, Strategy: st.Name, Envelope: envelope, UsedReasoning: reasoning}, nil
		}
		if errors.Is(err, errNotObject) {
			notObject = true
		}
		n.logger.Debug("Extraction strategy failed", "strategy", st.Name, "err", err)
		errs = append(errs, err)
	}

	reason := domain.ReasonNoJSON
	if notObject {
		reason = domain.ReasonInvalidFormat
	}
	return nil, &domain.NormalizationError{Reason: reason, Err: errors.Join(errs...)}
}

// unwrapEnvelope extracts the message text from {choices: [{message: {...}}]}.
func (n *Normalizer) unwrapEnvelope(obj map[string]any) (text string, usedReasoning bool, ok bool) {
	choices, isList := obj["choices"].([]any)
	if !isList || len(choices) == 0 {
		return "", false, false
	}

	first, _ := choices[0].(map[string]any)
	message, _ := first["message"].(map[string]any)
	if content, _ := message["content"].(string); content != "" {
		return content, false, true
	}
	if n.allowReasoning {
		if r, _ := message["reasoning"].(string); r != "" {
			n.logger.Warn("Envelope has no content, falling back to reasoning", "length", len(r))
			return r, true, true
		}
	}
	return "", false, true
}

// documentKeys are the fields passed through from an already structured object.
var documentKeys = []string{
	domain.KeyName,
	string(domain.FieldDescription),
	string(domain.FieldPersonality),
	"scenario",
	string(domain.FieldFirstMes),
	string(domain.FieldMesExample),
	string(domain.FieldAlternateGreetings),
	"creator_notes",
	"post_history_instructions",
	"system_prompt",
	"tags",
}

func knownFields(obj map[string]any) map[string]any {
	out := make(map[string]any, len(documentKeys))
	for _, k := range documentKeys {
		if v, ok := obj[k]; ok {
			out[k] = v
		}
	}
	return out
}

func keys(m map[string]any) string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return strings.Join(ks, ",")
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
