package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPromptBuilt        EventType = "prompt_built"
	EventCompletionReturned EventType = "completion_returned"
	EventNormalized         EventType = "normalized"
	EventFinished           EventType = "finished"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	OperationID string    `json:"operation_id"`
}

// PromptEvent is emitted once the prompt has been rendered.
type PromptEvent struct {
	EventBase
	Fields          []Field `json:"fields"`
	EstimatedTokens int     `json:"estimated_tokens"`
}

// CompletionEvent is emitted when the completion call returns, aborted or not.
type CompletionEvent struct {
	EventBase
	Duration time.Duration `json:"duration"`
	Aborted  bool          `json:"aborted"`
	IsError  bool          `json:"is_error,omitempty"`
}

// NormalizeEvent is emitted after the response normalizer ran.
type NormalizeEvent struct {
	EventBase
	Strategy string `json:"strategy,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
}

// FinishEvent carries the final outcome of an operation.
type FinishEvent struct {
	EventBase
	Outcome Outcome `json:"outcome"`
	Fields  []Field `json:"fields,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnPromptBuilt        func(context.Context, *PromptEvent)
	OnCompletionReturned func(context.Context, *CompletionEvent)
	OnNormalized         func(context.Context, *NormalizeEvent)
	OnFinished           func(context.Context, *FinishEvent)
}
