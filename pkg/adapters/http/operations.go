package http

import (
	"sync"

	"github.com/aretw0/povrewrite/pkg/cancel"
)

// OperationRegistry tracks the cancellation tokens of in-flight rewrites.
type OperationRegistry struct {
	mu     sync.Mutex
	tokens map[string]*cancel.Token
}

func NewOperationRegistry() *OperationRegistry {
	return &OperationRegistry{tokens: make(map[string]*cancel.Token)}
}

// Register creates an active token for id, so an abort arriving before the
// pipeline starts still takes effect. ok is false if id is already in flight.
func (r *OperationRegistry) Register(id string) (token *cancel.Token, release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[id]; exists {
		return nil, nil, false
	}
	token = cancel.Started()
	r.tokens[id] = token
	return token, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.tokens, id)
	}, true
}

// Abort aborts the operation. found is false for unknown IDs; aborted is false
// when the completion had already returned.
func (r *OperationRegistry) Abort(id string) (aborted, found bool) {
	r.mu.Lock()
	token, ok := r.tokens[id]
	r.mu.Unlock()

	if !ok {
		return false, false
	}
	return token.Abort(), true
}

// Active lists the IDs of in-flight operations.
func (r *OperationRegistry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.tokens))
	for id := range r.tokens {
		ids = append(ids, id)
	}
	return ids
}
