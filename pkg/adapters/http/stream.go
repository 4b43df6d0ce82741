package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/domain"
)

// AllOperations subscribes to the events of every operation.
const AllOperations = "*"

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // OperationID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for operationID (or AllOperations).
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(operationID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[operationID]; !ok {
		sm.subscribers[operationID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[operationID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[operationID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, operationID)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of operationID and to global subscribers.
func (sm *StreamManager) Broadcast(operationID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{operationID, AllOperations} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "operation_id", operationID)
			}
		}
	}
}

func (sm *StreamManager) publish(operationID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "err", err)
		return
	}
	sm.Broadcast(operationID, string(data))
}

// Hooks returns lifecycle hooks that stream every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPromptBuilt: func(_ context.Context, e *domain.PromptEvent) {
			sm.publish(e.OperationID, e)
		},
		OnCompletionReturned: func(_ context.Context, e *domain.CompletionEvent) {
			sm.publish(e.OperationID, e)
		},
		OnNormalized: func(_ context.Context, e *domain.NormalizeEvent) {
			sm.publish(e.OperationID, e)
		},
		OnFinished: func(_ context.Context, e *domain.FinishEvent) {
			sm.publish(e.OperationID, e)
		},
	}
}
