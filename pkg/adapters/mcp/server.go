package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/registry"
	"github.com/aretw0/cardflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// IssuesResponse lists the issues of a flow.
type IssuesResponse struct {
	FlowID string         `json:"flow_id" jsonschema_description:"The inspected flow"`
	Issues []domain.Issue `json:"issues" jsonschema_description:"Structural and content defects, in card order"`
}

// EdgesResponse lists the neighbours of a card.
type EdgesResponse struct {
	CardID   string   `json:"card_id"`
	Outgoing []string `json:"outgoing" jsonschema_description:"Ids of the cards this card points to"`
	Incoming []string `json:"incoming" jsonschema_description:"Ids of the cards pointing to this card"`
}

// RenameResponse reports a graph-wide reference rewrite.
type RenameResponse struct {
	Changed int `json:"changed" jsonschema_description:"Number of cards whose references changed"`
}

// DestinationResponse reports the card's issues after a destination was picked.
type DestinationResponse struct {
	CardID string         `json:"card_id"`
	Issues []domain.Issue `json:"issues"`
}

// Server exposes stored flows to MCP clients.
type Server struct {
	sessions  *session.Manager
	registry  *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRegistry sets the registry listed by the card_types tool.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("cardflow-mcp", strings.TrimSpace(cardflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.Default()
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the ids of every stored flow."),
	), s.handleListFlows)

	s.mcpServer.AddTool(mcp.NewTool("card_types",
		mcp.WithDescription("List the card types that can be added to a flow, with their palette labels."),
	), s.handleCardTypes)

	s.mcpServer.AddTool(mcp.NewTool("list_issues",
		mcp.WithDescription("Validate every card of a flow and list the issues found."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("The flow to validate")),
		mcp.WithOutputSchema[IssuesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListIssues))

	s.mcpServer.AddTool(mcp.NewTool("card_edges",
		mcp.WithDescription("List the cards a card points to and the cards pointing to it."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("The flow holding the card")),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("The focused card")),
		mcp.WithOutputSchema[EdgesResponse](),
	), mcp.NewStructuredToolHandler(s.handleCardEdges))

	s.mcpServer.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Find cards whose id, name or content contains the query, ignoring case."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("The flow to search")),
		mcp.WithString("query", mcp.Description("Text to look for; empty matches every card")),
	), s.handleSearchCards)

	s.mcpServer.AddTool(mcp.NewTool("rename_reference",
		mcp.WithDescription("Repoint every reference to one card id at another id across the flow."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("The flow to edit")),
		mcp.WithString("old_id", mcp.Required(), mcp.Description("The id currently referenced")),
		mcp.WithString("new_id", mcp.Required(), mcp.Description("The id to reference instead")),
		mcp.WithOutputSchema[RenameResponse](),
	), mcp.NewStructuredToolHandler(s.handleRenameReference))

	s.mcpServer.AddTool(mcp.NewTool("pick_destination",
		mcp.WithDescription("Point a reference field of a card at another card and return the card's issues."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("The flow to edit")),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("The card being edited")),
		mcp.WithString("destination", mcp.Description("The destination card id; empty clears the reference")),
		mcp.WithString("field", mcp.Description("Reference field, defaults to next_id")),
		mcp.WithOutputSchema[DestinationResponse](),
	), mcp.NewStructuredToolHandler(s.handlePickDestination))
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCardTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, _ := json.Marshal(s.cardTypes())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) cardTypes() []map[string]string {
	types := s.registry.Types()
	out := make([]map[string]string, 0, len(types))
	for _, t := range types {
		out = append(out, map[string]string{"type": t, "label": s.registry.Label(t)})
	}
	return out
}

func (s *Server) handleSearchCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := request.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := request.GetString("query", "")

	var ids []string
	err = s.sessions.View(ctx, flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		ids = cardIDs(ed.Graph().Search(query))
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// Handler methods for structured tools

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (IssuesResponse, error) {
	flowID, _ := args["flow_id"].(string)
	resp := IssuesResponse{FlowID: flowID}
	err := s.sessions.View(ctx, flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		resp.Issues = ed.Issues()
		return nil
	})
	if err != nil {
		return IssuesResponse{}, fmt.Errorf("list issues failed: %w", err)
	}
	if resp.Issues == nil {
		resp.Issues = []domain.Issue{}
	}
	return resp, nil
}

func (s *Server) handleCardEdges(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EdgesResponse, error) {
	flowID, _ := args["flow_id"].(string)
	cardID, _ := args["card_id"].(string)

	resp := EdgesResponse{CardID: cardID}
	err := s.sessions.View(ctx, flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		if ed.Graph().Lookup(cardID) == nil {
			return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
		}
		out, in := ed.Edges(cardID)
		resp.Outgoing, resp.Incoming = cardIDs(out), cardIDs(in)
		return nil
	})
	if err != nil {
		return EdgesResponse{}, fmt.Errorf("card edges failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleRenameReference(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenameResponse, error) {
	flowID, _ := args["flow_id"].(string)
	oldID, _ := args["old_id"].(string)
	newID, _ := args["new_id"].(string)

	var resp RenameResponse
	_, err := s.sessions.Edit(ctx, flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		resp.Changed = ed.RenameReference(ctx, oldID, newID)
		return nil
	})
	if err != nil {
		return RenameResponse{}, fmt.Errorf("rename failed: %w", err)
	}
	s.logger.Info("MCP: reference renamed", "flow", flowID, "old", oldID, "new", newID, "changed", resp.Changed)
	return resp, nil
}

func (s *Server) handlePickDestination(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DestinationResponse, error) {
	flowID, _ := args["flow_id"].(string)
	cardID, _ := args["card_id"].(string)
	dest, _ := args["destination"].(string)
	field, _ := args["field"].(string)
	if field == "" {
		field = domain.FieldNextID
	}

	resp := DestinationResponse{CardID: cardID}
	_, err := s.sessions.Edit(ctx, flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		var err error
		resp.Issues, err = ed.OnReferencePicked(ctx, cardID, field, dest)
		return err
	})
	if err != nil {
		return DestinationResponse{}, fmt.Errorf("pick destination failed: %w", err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("cardflow://types", "Card Types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.cardTypes())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cardflow://types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func cardIDs(cards []card.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID())
	}
	return out
}
