package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/cancel"
	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/normalize"
	"github.com/aretw0/povrewrite/pkg/ports"
	"github.com/aretw0/povrewrite/pkg/prompt"
	"github.com/aretw0/povrewrite/pkg/reconcile"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a document stays locked if a holder dies mid-rewrite.
const DefaultLockTTL = 10 * time.Minute

// Engine runs the rewrite pipeline: build prompt, complete, normalize, reconcile, commit.
type Engine struct {
	completer  ports.Completer
	store      ports.DocumentStore
	locker     ports.Locker
	confirmer  ports.Confirmer
	normalizer *normalize.Normalizer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	lockTTL    time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore enables loading documents by ID and committing rewrites.
func WithStore(store ports.DocumentStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker guards each document so only one rewrite runs on it at a time.
func WithLocker(locker ports.Locker, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.locker = locker
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithConfirmer asks for approval of the preview before committing.
func WithConfirmer(c ports.Confirmer) EngineOption {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithNormalizer replaces the default response normalizer.
func WithNormalizer(n *normalize.Normalizer) EngineOption {
	return func(e *Engine) {
		e.normalizer = n
	}
}

// NewEngine creates a pipeline around a completer.
func NewEngine(completer ports.Completer, opts ...EngineOption) *Engine {
	e := &Engine{
		completer: completer,
		logger:    logging.NewNop(),
		lockTTL:   DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.normalizer == nil {
		e.normalizer = normalize.New(normalize.WithLogger(e.logger))
	}
	return e
}

// Request describes one rewrite.
type Request struct {
	// OperationID identifies the run in logs and events. Generated when empty.
	OperationID string
	// DocumentID names the stored document. Needed to load or commit through the store.
	DocumentID string
	// Document is rewritten as given. When nil it is loaded by DocumentID.
	Document *domain.Document
	Settings config.Settings
	// CharacterName overrides Document.Name for placeholder restoration.
	CharacterName string
	UserName      string
	// Token lets another goroutine abort the run. A private token is used when nil.
	Token *cancel.Token
}

// Result is what a run produced. Partial and Preview are nil unless the
// response was reconciled.
type Result struct {
	OperationID string
	Outcome     domain.Outcome
	Prompt      string
	Strategy    string
	Partial     domain.PartialDocument
	Preview     *domain.Preview
	// Document is the merged document after a commit.
	Document *domain.Document
}

// PromptPreview is shown to the user before the request is sent.
type PromptPreview struct {
	Prompt          string         `json:"prompt"`
	EstimatedTokens int            `json:"estimated_tokens"`
	MaxTokens       int            `json:"max_tokens"`
	Fields          []domain.Field `json:"fields"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// Preview renders the prompt that Run would send, without sending it.
func (e *Engine) Preview(doc *domain.Document, settings config.Settings) (*PromptPreview, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no character selected", domain.ErrConfiguration)
	}
	text := prompt.Build(doc, settings.Fields, settings.PromptTemplate)
	return &PromptPreview{
		Prompt:          text,
		EstimatedTokens: prompt.EstimateTokens(text),
		MaxTokens:       settings.MaxTokens,
		Fields:          settings.Fields.Enabled(),
		Warnings:        settings.Warnings(),
	}, nil
}

// Run executes one rewrite. Every failure is reported through Result.Outcome;
// the returned error is non-nil only when the outcome is failed.
// Aborted, declined and pending runs are not errors.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{OperationID: req.OperationID}
	if res.OperationID == "" {
		res.OperationID = uuid.NewString()
	}
	logger := e.logger.With("operation_id", res.OperationID)
	if req.DocumentID != "" {
		logger = logger.With("document_id", req.DocumentID)
	}

	err := e.run(ctx, logger, req, res)
	if err != nil {
		res.Outcome = domain.Failed(err)
		logger.Error("Rewrite failed", "err", err)
	} else {
		logger.Info("Rewrite finished", "status", res.Outcome.Status)
	}

	if e.hooks.OnFinished != nil {
		e.hooks.OnFinished(ctx, &domain.FinishEvent{
			EventBase: e.base(domain.EventFinished, res.OperationID),
			Outcome:   res.Outcome,
			Fields:    res.Partial.Fields(),
		})
	}
	return res, err
}

func (e *Engine) run(ctx context.Context, logger *slog.Logger, req Request, res *Result) error {
	if e.completer == nil {
		return fmt.Errorf("%w: no completer configured", domain.ErrConfiguration)
	}
	if !req.Settings.Enabled {
		return fmt.Errorf("%w: rewriting is disabled", domain.ErrConfiguration)
	}
	if err := req.Settings.Validate(); err != nil {
		return err
	}
	for _, w := range req.Settings.Warnings() {
		logger.Warn("Settings degrade the rewrite", "warning", w)
	}

	token := req.Token
	if token == nil {
		token = cancel.New()
	}
	token.Start()
	defer token.Reset()

	if e.locker != nil && req.DocumentID != "" {
		unlock, err := e.locker.TryLock(ctx, req.DocumentID, e.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release document lock", "err", err)
			}
		}()
	}

	doc, err := e.resolveDocument(ctx, req)
	if err != nil {
		return err
	}

	settings := req.Settings
	res.Prompt = prompt.Build(doc, settings.Fields, settings.PromptTemplate)
	estimated := prompt.EstimateTokens(res.Prompt)
	logger.Debug("Prompt built", "fields", settings.Fields.String(), "estimated_tokens", estimated)
	if e.hooks.OnPromptBuilt != nil {
		e.hooks.OnPromptBuilt(ctx, &domain.PromptEvent{
			EventBase:       e.base(domain.EventPromptBuilt, res.OperationID),
			Fields:          settings.Fields.Enabled(),
			EstimatedTokens: estimated,
		})
	}

	if token.Aborted() {
		logger.Info("Rewrite aborted before the completion was sent")
		res.Outcome = domain.Aborted()
		return nil
	}

	start := time.Now()
	raw, completeErr := e.completer.Complete(ctx, res.Prompt, settings.MaxTokens)
	aborted := !token.Complete() && token.Aborted()
	if e.hooks.OnCompletionReturned != nil {
		e.hooks.OnCompletionReturned(ctx, &domain.CompletionEvent{
			EventBase: e.base(domain.EventCompletionReturned, res.OperationID),
			Duration:  time.Since(start),
			Aborted:   aborted,
			IsError:   completeErr != nil,
		})
	}
	if aborted {
		res.Outcome = domain.Aborted()
		return nil
	}
	if completeErr != nil {
		return fmt.Errorf("completion failed: %w", completeErr)
	}

	normalized, err := e.normalizer.Normalize(raw)
	if e.hooks.OnNormalized != nil {
		ev := &domain.NormalizeEvent{
			EventBase: e.base(domain.EventNormalized, res.OperationID),
			IsError:   err != nil,
		}
		if normalized != nil {
			ev.Strategy = normalized.Strategy
		}
		e.hooks.OnNormalized(ctx, ev)
	}
	if err != nil {
		return err
	}
	res.Strategy = normalized.Strategy

	res.Partial = reconcile.Reconcile(reconcile.Request{
		Fields:        normalized.Fields,
		Original:      doc,
		Selector:      settings.Fields,
		CharacterName: req.CharacterName,
		UserName:      req.UserName,
	})
	res.Preview = domain.NewPreview(doc, res.Partial)
	logger.Debug("Response reconciled",
		"strategy", normalized.Strategy,
		"fields", len(res.Partial),
		"changed", res.Preview.ChangedCount())

	if settings.ShowPreview {
		if e.confirmer == nil {
			res.Outcome = domain.Pending()
			return nil
		}
		ok, err := e.confirmer.Confirm(ctx, res.Preview)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			res.Outcome = domain.Declined()
			return nil
		}
	}

	if e.store != nil && req.DocumentID != "" {
		merged, err := e.commit(ctx, req.DocumentID, doc, res.Partial)
		if err != nil {
			return err
		}
		res.Document = merged
	} else {
		merged, err := res.Partial.ApplyTo(doc)
		if err != nil {
			return err
		}
		res.Document = merged
	}
	res.Outcome = domain.Succeeded()
	return nil
}

// Apply commits a previously reviewed PartialDocument into the stored document.
func (e *Engine) Apply(ctx context.Context, documentID string, partial domain.PartialDocument) (*domain.Document, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no document store configured", domain.ErrConfiguration)
	}
	if e.locker != nil {
		unlock, err := e.locker.TryLock(ctx, documentID, e.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("Failed to release document lock", "document_id", documentID, "err", err)
			}
		}()
	}
	doc, err := e.store.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return e.commit(ctx, documentID, doc, partial)
}

func (e *Engine) commit(ctx context.Context, id string, doc *domain.Document, partial domain.PartialDocument) (*domain.Document, error) {
	merged, err := partial.ApplyTo(doc)
	if err != nil {
		return nil, err
	}
	if err := e.store.Save(ctx, id, merged); err != nil {
		return nil, fmt.Errorf("failed to save document %s: %w", id, err)
	}
	e.logger.Info("Document updated", "document_id", id, "fields", len(partial.Fields()))
	return merged, nil
}

func (e *Engine) resolveDocument(ctx context.Context, req Request) (*domain.Document, error) {
	if req.Document != nil {
		return req.Document, nil
	}
	if req.DocumentID == "" {
		return nil, fmt.Errorf("%w: no character selected", domain.ErrConfiguration)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: no document store to load %s from", domain.ErrConfiguration, req.DocumentID)
	}
	doc, err := e.store.Load(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", err, req.DocumentID)
		}
		return nil, fmt.Errorf("failed to load document %s: %w", req.DocumentID, err)
	}
	return doc, nil
}

func (e *Engine) base(t domain.EventType, opID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, OperationID: opID}
}
