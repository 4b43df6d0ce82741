package povrewrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/internal/runtime"
	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/ports"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "dev"

type (
	// Request describes one rewrite.
	Request = runtime.Request
	// Result is what a rewrite produced.
	Result = runtime.Result
	// PromptPreview is the prompt shown before sending.
	PromptPreview = runtime.PromptPreview
)

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and keeps its collaborators for callers that need them.
type Engine struct {
	runtime   *runtime.Engine
	completer ports.Completer
	store     ports.DocumentStore
	locker    ports.Locker
	lockTTL   time.Duration
	confirmer ports.Confirmer
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCompleter sets the LLM backend. Required for Rewrite.
func WithCompleter(c ports.Completer) Option {
	return func(e *Engine) {
		e.completer = c
	}
}

// WithStore sets where documents are loaded from and committed to.
func WithStore(s ports.DocumentStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker keeps a single rewrite in flight per document.
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithConfirmer sets the reviewer asked before a previewed rewrite is committed.
func WithConfirmer(c ports.Confirmer) Option {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.store != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithStore(eng.store))
	}
	if eng.locker != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithLocker(eng.locker, eng.lockTTL))
	}
	if eng.confirmer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithConfirmer(eng.confirmer))
	}

	eng.runtime = runtime.NewEngine(eng.completer, runtimeOpts...)
	return eng, nil
}

// Rewrite runs the full pipeline for one document.
// See runtime.Engine.Run for how outcomes and errors relate.
func (e *Engine) Rewrite(ctx context.Context, req Request) (*Result, error) {
	return e.runtime.Run(ctx, req)
}

// Preview renders the prompt for a document without sending it.
func (e *Engine) Preview(doc *domain.Document, settings config.Settings) (*PromptPreview, error) {
	return e.runtime.Preview(doc, settings)
}

// Apply commits a reviewed PartialDocument into the stored document.
func (e *Engine) Apply(ctx context.Context, documentID string, partial domain.PartialDocument) (*domain.Document, error) {
	return e.runtime.Apply(ctx, documentID, partial)
}

// Document loads a stored document.
func (e *Engine) Document(ctx context.Context, id string) (*domain.Document, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no document store configured", domain.ErrConfiguration)
	}
	return e.store.Load(ctx, id)
}

// Store returns the configured DocumentStore, or nil.
func (e *Engine) Store() ports.DocumentStore {
	return e.store
}
