// Package http exposes the rewrite pipeline over a JSON API routed with chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/povrewrite"
	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/normalize"
	"github.com/aretw0/povrewrite/pkg/reconcile"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the subset of the rewrite engine the server drives.
type Engine interface {
	Rewrite(ctx context.Context, req povrewrite.Request) (*povrewrite.Result, error)
	Preview(doc *domain.Document, settings config.Settings) (*povrewrite.PromptPreview, error)
	Apply(ctx context.Context, documentID string, partial domain.PartialDocument) (*domain.Document, error)
	Document(ctx context.Context, id string) (*domain.Document, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	Engine     Engine
	Settings   config.Settings
	Streams    *StreamManager
	Operations *OperationRegistry
	normalizer *normalize.Normalizer
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks were registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts /metrics for the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates the HTTP handler for the engine.
// settings are the defaults each request may override.
func NewHandler(engine Engine, settings config.Settings, opts ...Option) http.Handler {
	s := &Server{
		Engine:     engine,
		Settings:   settings,
		Operations: NewOperationRegistry(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	s.normalizer = normalize.New(normalize.WithLogger(s.logger))

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/settings", s.GetSettings)
	r.Post("/prompt", s.BuildPrompt)
	r.Post("/normalize", s.Normalize)
	r.Post("/reconcile", s.Reconcile)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/documents/{id}", func(r chi.Router) {
		r.Get("/", s.GetDocument)
		r.Post("/rewrite", s.Rewrite)
		r.Post("/apply", s.Apply)
	})

	r.Get("/operations", s.ListOperations)
	r.Post("/operations/{id}/abort", s.AbortOperation)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Request and response bodies --

// PromptRequest asks for the prompt a document would produce.
type PromptRequest struct {
	Document *domain.Document     `json:"document"`
	Fields   *domain.FieldSelector `json:"fields,omitempty"`
}

// NormalizeRequest carries a raw model response: a string, a structured object,
// or a whole chat-completion envelope.
type NormalizeRequest struct {
	Raw json.RawMessage `json:"raw"`
}

type NormalizeResponse struct {
	Fields   map[string]any `json:"fields"`
	Strategy string         `json:"strategy"`
}

// ReconcileRequest runs normalize and reconcile without a completion call.
type ReconcileRequest struct {
	Raw           json.RawMessage       `json:"raw"`
	Document      *domain.Document      `json:"document"`
	Fields        *domain.FieldSelector `json:"fields,omitempty"`
	CharacterName string                `json:"character_name,omitempty"`
	UserName      string                `json:"user_name,omitempty"`
}

type ReconcileResponse struct {
	Partial  domain.PartialDocument `json:"partial"`
	Strategy string                 `json:"strategy"`
	Preview  *domain.Preview        `json:"preview"`
}

// RewriteRequest starts a rewrite of a stored document.
type RewriteRequest struct {
	OperationID   string                `json:"operation_id,omitempty"`
	UserName      string                `json:"user_name,omitempty"`
	CharacterName string                `json:"character_name,omitempty"`
	Fields        *domain.FieldSelector `json:"fields,omitempty"`
	ShowPreview   *bool                 `json:"show_preview,omitempty"`
	MaxTokens     *int                  `json:"max_tokens,omitempty"`
}

type RewriteResponse struct {
	OperationID string                 `json:"operation_id"`
	Outcome     domain.Outcome         `json:"outcome"`
	Strategy    string                 `json:"strategy,omitempty"`
	Partial     domain.PartialDocument `json:"partial,omitempty"`
	Preview     *domain.Preview        `json:"preview,omitempty"`
	Document    *domain.Document       `json:"document,omitempty"`
}

type ApplyRequest struct {
	Partial domain.PartialDocument `json:"partial"`
}

type AbortResponse struct {
	OperationID string `json:"operation_id"`
	Aborted     bool   `json:"aborted"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// -- Handlers --

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": povrewrite.Version})
}

// GetSettings handles GET /settings. The API key is never returned.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	out := s.Settings
	out.Provider.APIKey = ""
	writeJSON(w, http.StatusOK, out)
}

// BuildPrompt handles POST /prompt.
func (s *Server) BuildPrompt(w http.ResponseWriter, r *http.Request) {
	var body PromptRequest
	if !s.decode(w, r, &body) {
		return
	}
	settings := s.Settings
	if body.Fields != nil {
		settings.Fields = *body.Fields
	}
	preview, err := s.Engine.Preview(body.Document, settings)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Normalize handles POST /normalize.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	var body NormalizeRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.normalizer.Normalize(rawValue(body.Raw))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Fields: res.Fields, Strategy: res.Strategy})
}

// Reconcile handles POST /reconcile.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body ReconcileRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Document == nil {
		s.writeError(w, fmt.Errorf("%w: document is required", domain.ErrConfiguration))
		return
	}
	res, err := s.normalizer.Normalize(rawValue(body.Raw))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel := s.Settings.Fields
	if body.Fields != nil {
		sel = *body.Fields
	}
	partial := reconcile.Reconcile(reconcile.Request{
		Fields:        res.Fields,
		Original:      body.Document,
		Selector:      sel,
		CharacterName: body.CharacterName,
		UserName:      body.UserName,
	})
	writeJSON(w, http.StatusOK, ReconcileResponse{
		Partial:  partial,
		Strategy: res.Strategy,
		Preview:  domain.NewPreview(body.Document, partial),
	})
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Rewrite handles POST /documents/{id}/rewrite. The call blocks until the
// completion returns; POST /operations/{operation_id}/abort discards its result.
func (s *Server) Rewrite(w http.ResponseWriter, r *http.Request) {
	var body RewriteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	settings := s.Settings
	if body.Fields != nil {
		settings.Fields = *body.Fields
	}
	if body.ShowPreview != nil {
		settings.ShowPreview = *body.ShowPreview
	}
	if body.MaxTokens != nil {
		settings.MaxTokens = *body.MaxTokens
	}

	opID := body.OperationID
	if opID == "" {
		opID = uuid.NewString()
	}
	token, release, ok := s.Operations.Register(opID)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: operation %s", domain.ErrOperationActive, opID))
		return
	}
	defer release()

	res, err := s.Engine.Rewrite(r.Context(), povrewrite.Request{
		OperationID:   opID,
		DocumentID:    chi.URLParam(r, "id"),
		Settings:      settings,
		CharacterName: body.CharacterName,
		UserName:      body.UserName,
		Token:         token,
	})

	resp := RewriteResponse{OperationID: opID}
	if res != nil {
		resp.Outcome = res.Outcome
		resp.Strategy = res.Strategy
		resp.Partial = res.Partial
		resp.Preview = res.Preview
		resp.Document = res.Document
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		s.logger.Warn("Rewrite failed", "operation_id", opID, "err", err)
	}
	writeJSON(w, status, resp)
}

// Apply handles POST /documents/{id}/apply.
func (s *Server) Apply(w http.ResponseWriter, r *http.Request) {
	var body ApplyRequest
	if !s.decode(w, r, &body) {
		return
	}
	doc, err := s.Engine.Apply(r.Context(), chi.URLParam(r, "id"), body.Partial.Restrict(s.Settings.Fields))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListOperations handles GET /operations.
func (s *Server) ListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"operations": s.Operations.Active()})
}

// AbortOperation handles POST /operations/{id}/abort.
func (s *Server) AbortOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	aborted, found := s.Operations.Abort(id)
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "operation not found"})
		return
	}
	s.logger.Info("Abort requested", "operation_id", id, "aborted", aborted)
	writeJSON(w, http.StatusAccepted, AbortResponse{OperationID: id, Aborted: aborted})
}

// SubscribeEvents handles GET /events (SSE). ?operation_id= narrows the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	opID := r.URL.Query().Get("operation_id")
	if opID == "" {
		opID = AllOperations
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(opID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected", "operation_id", opID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var nerr *domain.NormalizationError
	if errors.As(err, &nerr) {
		resp.Reason = nerr.Reason
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOperationActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNormalization):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// rawValue hands JSON strings to the normalizer as text, objects as structured
// responses, and anything else as bytes for the normalizer to reject.
func rawValue(raw json.RawMessage) any {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return obj
	}
	return []byte(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
