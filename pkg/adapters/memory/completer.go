package memory

import (
	"context"
	"sync"
)

// Call records one completion request.
type Call struct {
	Prompt    string
	MaxTokens int
}

// Completer is a scripted ports.Completer for demos and tests.
// It returns the queued responses in order and then repeats the last one.
type Completer struct {
	mu        sync.Mutex
	responses []any
	err       error
	calls     []Call
	// BeforeReturn, if set, runs after the request is recorded and before the
	// response is returned, simulating work done while the call is in flight.
	BeforeReturn func(ctx context.Context)
}

// NewCompleter creates a completer answering with the given raw responses.
func NewCompleter(responses ...any) *Completer {
	return &Completer{responses: responses}
}

// FailWith makes every subsequent call return err.
func (c *Completer) FailWith(err error) *Completer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	return c
}

// Complete returns the next scripted response.
func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int) (any, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Prompt: prompt, MaxTokens: maxTokens})
	var resp any
	if len(c.responses) > 0 {
		resp = c.responses[0]
		if len(c.responses) > 1 {
			c.responses = c.responses[1:]
		}
	}
	err := c.err
	hook := c.BeforeReturn
	c.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Calls returns the recorded requests.
func (c *Completer) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}
