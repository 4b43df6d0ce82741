// Package mcp exposes the rewrite pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/povrewrite"
	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/normalize"
	"github.com/aretw0/povrewrite/pkg/reconcile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	settingsURI = "povrewrite://settings"
	templateURI = "povrewrite://template"
)

// Engine defines what the MCP server needs from the rewrite engine.
type Engine interface {
	Rewrite(ctx context.Context, req povrewrite.Request) (*povrewrite.Result, error)
	Preview(doc *domain.Document, settings config.Settings) (*povrewrite.PromptPreview, error)
	Apply(ctx context.Context, documentID string, partial domain.PartialDocument) (*domain.Document, error)
}

// NormalizeResponse is the structured result of normalize_response.
type NormalizeResponse struct {
	Fields   map[string]any `json:"fields" jsonschema_description:"JSON object recovered from the model output"`
	Strategy string         `json:"strategy" jsonschema_description:"Extraction step that recovered it"`
}

// ReconcileResponse is the structured result of reconcile_response.
type ReconcileResponse struct {
	Partial  domain.PartialDocument `json:"partial" jsonschema_description:"Rewritten fields ready to merge into the card"`
	Strategy string                 `json:"strategy" jsonschema_description:"Extraction step that recovered the fields"`
}

// RewriteResponse is the structured result of rewrite_document.
type RewriteResponse struct {
	OperationID string                 `json:"operation_id"`
	Outcome     domain.Outcome         `json:"outcome" jsonschema_description:"Final status and user-facing message"`
	Partial     domain.PartialDocument `json:"partial,omitempty"`
	Document    *domain.Document       `json:"document,omitempty"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine     Engine
	settings   config.Settings
	normalizer *normalize.Normalizer
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, settings config.Settings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:     engine,
		settings:   settings,
		normalizer: normalize.New(normalize.WithLogger(logger)),
		mcpServer:  server.NewMCPServer("povrewrite-mcp", strings.TrimSpace(povrewrite.Version)),
		logger:     logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: build_prompt
	promptTool := mcp.NewTool("build_prompt",
		mcp.WithDescription("Render the first-person rewrite prompt for a character card without sending it."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Character card as a JSON object")),
		mcp.WithString("fields", mcp.Description("Comma separated fields to rewrite (default: configured fields)")),
		mcp.WithOutputSchema[povrewrite.PromptPreview](),
	)
	s.mcpServer.AddTool(promptTool, mcp.NewStructuredToolHandler(s.handleBuildPrompt))

	// TOOL: normalize_response
	normalizeTool := mcp.NewTool("normalize_response",
		mcp.WithDescription("Recover the JSON object from a raw model response (fenced, wrapped in prose, or a chat-completion envelope)."),
		mcp.WithString("raw", mcp.Required(), mcp.Description("Raw model output")),
		mcp.WithOutputSchema[NormalizeResponse](),
	)
	s.mcpServer.AddTool(normalizeTool, mcp.NewStructuredToolHandler(s.handleNormalize))

	// TOOL: reconcile_response
	reconcileTool := mcp.NewTool("reconcile_response",
		mcp.WithDescription("Turn a raw model response into the rewritten fields of a card, restoring {{char}} and {{user}} placeholders."),
		mcp.WithString("raw", mcp.Required(), mcp.Description("Raw model output")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Original character card as a JSON object")),
		mcp.WithString("fields", mcp.Description("Comma separated fields to keep (default: configured fields)")),
		mcp.WithString("user_name", mcp.Description("User name to fold back into {{user}}")),
		mcp.WithString("character_name", mcp.Description("Character name to fold back into {{char}} (default: card name)")),
		mcp.WithOutputSchema[ReconcileResponse](),
	)
	s.mcpServer.AddTool(reconcileTool, mcp.NewStructuredToolHandler(s.handleReconcile))

	// TOOL: rewrite_document
	rewriteTool := mcp.NewTool("rewrite_document",
		mcp.WithDescription("Rewrite a stored character card to first person and commit the result."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Stored card ID")),
		mcp.WithString("fields", mcp.Description("Comma separated fields to rewrite (default: configured fields)")),
		mcp.WithString("user_name", mcp.Description("User name to fold back into {{user}}")),
		mcp.WithOutputSchema[RewriteResponse](),
	)
	s.mcpServer.AddTool(rewriteTool, mcp.NewStructuredToolHandler(s.handleRewrite))

	// TOOL: apply_rewrite
	applyTool := mcp.NewTool("apply_rewrite",
		mcp.WithDescription("Merge previously reconciled fields into a stored character card."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Stored card ID")),
		mcp.WithString("partial", mcp.Required(), mcp.Description("JSON object of rewritten fields")),
		mcp.WithOutputSchema[domain.Document](),
	)
	s.mcpServer.AddTool(applyTool, mcp.NewStructuredToolHandler(s.handleApply))
}

// Handler methods for structured tools

func (s *Server) handleBuildPrompt(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (povrewrite.PromptPreview, error) {
	doc, err := documentArg(args)
	if err != nil {
		return povrewrite.PromptPreview{}, err
	}
	settings := s.settings
	if settings.Fields, err = fieldsArg(args, settings.Fields); err != nil {
		return povrewrite.PromptPreview{}, err
	}
	preview, err := s.engine.Preview(doc, settings)
	if err != nil {
		return povrewrite.PromptPreview{}, fmt.Errorf("build prompt failed: %w", err)
	}
	return *preview, nil
}

func (s *Server) handleNormalize(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NormalizeResponse, error) {
	raw, _ := args["raw"].(string)
	res, err := s.normalizer.Normalize(raw)
	if err != nil {
		return NormalizeResponse{}, err
	}
	return NormalizeResponse{Fields: res.Fields, Strategy: res.Strategy}, nil
}

func (s *Server) handleReconcile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ReconcileResponse, error) {
	doc, err := documentArg(args)
	if err != nil {
		return ReconcileResponse{}, err
	}
	sel, err := fieldsArg(args, s.settings.Fields)
	if err != nil {
		return ReconcileResponse{}, err
	}
	raw, _ := args["raw"].(string)
	res, err := s.normalizer.Normalize(raw)
	if err != nil {
		return ReconcileResponse{}, err
	}

	userName, _ := args["user_name"].(string)
	charName, _ := args["character_name"].(string)
	partial := reconcile.Reconcile(reconcile.Request{
		Fields:        res.Fields,
		Original:      doc,
		Selector:      sel,
		CharacterName: charName,
		UserName:      userName,
	})
	return ReconcileResponse{Partial: partial, Strategy: res.Strategy}, nil
}

func (s *Server) handleRewrite(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RewriteResponse, error) {
	id, _ := args["document_id"].(string)
	userName, _ := args["user_name"].(string)

	settings := s.settings
	var err error
	if settings.Fields, err = fieldsArg(args, settings.Fields); err != nil {
		return RewriteResponse{}, err
	}
	// An agent cannot answer an interactive review, so commit directly.
	settings.ShowPreview = false

	res, err := s.engine.Rewrite(ctx, povrewrite.Request{
		DocumentID: id,
		Settings:   settings,
		UserName:   userName,
	})
	if err != nil {
		s.logger.Warn("MCP Rewrite failed", "document_id", id, "err", err)
		return RewriteResponse{}, fmt.Errorf("rewrite failed: %w", err)
	}
	return RewriteResponse{
		OperationID: res.OperationID,
		Outcome:     res.Outcome,
		Partial:     res.Partial,
		Document:    res.Document,
	}, nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Document, error) {
	id, _ := args["document_id"].(string)
	raw, _ := args["partial"].(string)

	var partial domain.PartialDocument
	if err := json.Unmarshal([]byte(raw), &partial); err != nil {
		return domain.Document{}, fmt.Errorf("%w: invalid partial JSON: %v", domain.ErrConfiguration, err)
	}
	doc, err := s.engine.Apply(ctx, id, partial.Restrict(s.settings.Fields))
	if err != nil {
		return domain.Document{}, fmt.Errorf("apply failed: %w", err)
	}
	return *doc, nil
}

func (s *Server) registerResources() {
	// EXPOSE: povrewrite://settings
	s.mcpServer.AddResource(mcp.NewResource(settingsURI, "Rewrite Settings",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		out := s.settings
		out.Provider.APIKey = ""
		jsonBytes, _ := json.Marshal(out)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      settingsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: povrewrite://template
	s.mcpServer.AddResource(mcp.NewResource(templateURI, "Prompt Template",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      templateURI,
				MIMEType: "text/plain",
				Text:     s.settings.PromptTemplate,
			},
		}, nil
	})
}

// -- Argument helpers --

func documentArg(args map[string]interface{}) (*domain.Document, error) {
	raw, _ := args["document"].(string)
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: document is required", domain.ErrConfiguration)
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid document JSON: %v", domain.ErrConfiguration, err)
	}
	return &doc, nil
}

func fieldsArg(args map[string]interface{}, fallback domain.FieldSelector) (domain.FieldSelector, error) {
	raw, _ := args["fields"].(string)
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	var sel domain.FieldSelector
	for _, name := range strings.Split(raw, ",") {
		f, ok := domain.ParseField(strings.TrimSpace(name))
		if !ok {
			return fallback, fmt.Errorf("%w: unknown field %q", domain.ErrConfiguration, name)
		}
		sel.Set(f, true)
	}
	return sel, nil
}
