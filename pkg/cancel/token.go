// Package cancel provides the cooperative cancellation token of a rewrite.
//
// Aborting never interrupts the in-flight completion call. The pipeline checks the
// token once, after the call returns, and discards the response if it was aborted.
package cancel

import (
	"fmt"
	"sync/atomic"
)

// State is the lifecycle state of a Token.
type State int32

const (
	// Idle means no operation is in flight.
	Idle State = iota
	// Active means an operation is in flight and may be aborted.
	Active
	// Aborted means the caller asked to abort; the result will be discarded.
	Aborted
	// Completed means the completion returned while the token was still active.
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Aborted:
		return "aborted"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Token is a single abort flag shared between the operation and whoever may abort it.
// It is safe to abort from another goroutine. The zero value is idle.
type Token struct {
	state atomic.Int32
}

// New returns an idle token.
func New() *Token {
	return &Token{}
}

// State returns the current state.
func (t *Token) State() State {
	return State(t.state.Load())
}

// Start marks an operation as in flight. A token that is already active or
// aborted keeps its state, so an abort issued before the operation started
// still discards its result.
func (t *Token) Start() {
	for {
		s := State(t.state.Load())
		if s == Active || s == Aborted {
			return
		}
		if t.state.CompareAndSwap(int32(s), int32(Active)) {
			return
		}
	}
}

// Started returns a token that is already active, for hosts that register an
// operation before the pipeline picks it up.
func Started() *Token {
	t := New()
	t.Start()
	return t
}

// Abort signals that the in-flight result must be discarded.
// It only takes effect while the token is active and reports whether it did.
func (t *Token) Abort() bool {
	return t.state.CompareAndSwap(int32(Active), int32(Aborted))
}

// Complete records that the completion returned.
// It reports false when the token had already been aborted.
func (t *Token) Complete() bool {
	return t.state.CompareAndSwap(int32(Active), int32(Completed))
}

// Aborted reports whether an abort was observed.
func (t *Token) Aborted() bool {
	return t.State() == Aborted
}

// Reset returns the token to idle once the operation has ended.
func (t *Token) Reset() {
	t.state.Store(int32(Idle))
}
