package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/registry"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/aretw0/cardflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Server exposes the editor entry points of stored flows over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	Metrics  *observability.Metrics
	Registry *registry.Registry
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a stream manager with the session manager's save callback.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics exposes /metrics and times issue collection.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.Metrics = m
	}
}

// WithRegistry sets the registry listed by /types.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) {
		s.Registry = r
	}
}

// WithLogger sets the request failure logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server over the session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{Sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	if s.Registry == nil {
		s.Registry = registry.Default()
	}
	return s
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openAPIDocument)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/types", s.ListCardTypes)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Post("/", s.CreateFlow)
		r.Route("/{flowID}", func(r chi.Router) {
			r.Get("/", s.GetFlow)
			r.Put("/", s.ReplaceFlow)
			r.Delete("/", s.DeleteFlow)
			r.Get("/issues", s.ListIssues)
			r.Get("/search", s.SearchCards)
			r.Post("/rename", s.RenameReference)
			r.Post("/cards", s.AddCard)
			r.Patch("/cards/{cardID}", s.ChangeField)
			r.Delete("/cards/{cardID}", s.RemoveCard)
			r.Get("/cards/{cardID}/edges", s.CardEdges)
			r.Put("/cards/{cardID}/references/{field}", s.PickDestination)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>cardflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Request bodies.

type createFlowRequest struct {
	ID    string              `json:"id"`
	Cards []domain.Definition `json:"cards"`
}

type addCardRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type fieldChange struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type destinationRequest struct {
	Destination string `json:"destination"`
}

type renameRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type cardTypeInfo struct {
	Type   string        `json:"type"`
	Label  string        `json:"label"`
	Fields schema.Schema `json:"fields"`
}

type edgesResponse struct {
	Outgoing []string `json:"outgoing"`
	Incoming []string `json:"incoming"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "cardflow-http",
		"version":     strings.TrimSpace(cardflow.Version),
		"api_version": apiVersion,
	})
}

// ListCardTypes handles the GET /types request.
func (s *Server) ListCardTypes(w http.ResponseWriter, r *http.Request) {
	types := s.Registry.Types()
	out := make([]cardTypeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, cardTypeInfo{Type: t, Label: s.Registry.Label(t), Fields: s.Registry.Fields(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListFlows", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateFlow handles the POST /flows request.
func (s *Server) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var body createFlowRequest
	if !s.decode(w, r, "CreateFlow", &body) {
		return
	}
	if err := domain.ValidateFlowID(body.ID); err != nil {
		s.fail(w, "CreateFlow", err)
		return
	}
	if body.Cards == nil {
		body.Cards = []domain.Definition{}
	}
	if err := s.Sessions.Create(r.Context(), body.ID, body.Cards); err != nil {
		s.fail(w, "CreateFlow", err)
		return
	}
	w.Header().Set("Location", "/flows/"+body.ID)
	writeJSON(w, http.StatusCreated, body.Cards)
}

// GetFlow handles the GET /flows/{flowID} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	defs, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, "GetFlow", err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// ReplaceFlow handles the PUT /flows/{flowID} request.
func (s *Server) ReplaceFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	var defs []domain.Definition
	if !s.decode(w, r, "ReplaceFlow", &defs) {
		return
	}
	diff, err := s.Sessions.Replace(r.Context(), flowID, defs)
	if err != nil {
		s.fail(w, "ReplaceFlow", err)
		return
	}
	s.logger.Debug("flow replaced", "flow", flowID, "changed", diff != nil)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFlow handles the DELETE /flows/{flowID} request.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	if err := s.Sessions.Delete(r.Context(), flowID); err != nil {
		s.fail(w, "DeleteFlow", err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.Forget(flowID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListIssues handles the GET /flows/{flowID}/issues request.
func (s *Server) ListIssues(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	var issues []domain.Issue
	err := s.Sessions.View(r.Context(), flowID, func(ctx context.Context, ed *cardflow.Editor) error {
		if s.Metrics != nil {
			issues = s.Metrics.ObserveValidation(flowID, ed.Issues)
		} else {
			issues = ed.Issues()
		}
		return nil
	})
	if err != nil {
		s.fail(w, "ListIssues", err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// SearchCards handles the GET /flows/{flowID}/search request.
func (s *Server) SearchCards(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &query); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter q: %v", err), http.StatusBadRequest)
		return
	}

	var ids []string
	err := s.Sessions.View(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		ids = cardIDs(ed.Graph().Search(query))
		return nil
	})
	if err != nil {
		s.fail(w, "SearchCards", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// RenameReference handles the POST /flows/{flowID}/rename request.
func (s *Server) RenameReference(w http.ResponseWriter, r *http.Request) {
	var body renameRequest
	if !s.decode(w, r, "RenameReference", &body) {
		return
	}
	var changed int
	_, err := s.Sessions.Edit(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		changed = ed.RenameReference(ctx, body.Old, body.New)
		return nil
	})
	if err != nil {
		s.fail(w, "RenameReference", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": changed})
}

// AddCard handles the POST /flows/{flowID}/cards request.
func (s *Server) AddCard(w http.ResponseWriter, r *http.Request) {
	var body addCardRequest
	if !s.decode(w, r, "AddCard", &body) {
		return
	}
	var def domain.Definition
	_, err := s.Sessions.Edit(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		c, err := ed.AddCard(ctx, body.Type, body.Name)
		if err != nil {
			return err
		}
		def = c.Definition().Clone()
		return nil
	})
	if err != nil {
		s.fail(w, "AddCard", err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// ChangeField handles the PATCH /flows/{flowID}/cards/{cardID} request.
func (s *Server) ChangeField(w http.ResponseWriter, r *http.Request) {
	var body fieldChange
	if !s.decode(w, r, "ChangeField", &body) {
		return
	}
	cardID := chi.URLParam(r, "cardID")
	var issues []domain.Issue
	_, err := s.Sessions.Edit(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		if err := ed.OnFieldChange(ctx, cardID, body.Field, body.Value); err != nil {
			return err
		}
		issues = ed.Graph().Lookup(cardID).Validate()
		return nil
	})
	if err != nil {
		s.fail(w, "ChangeField", err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// RemoveCard handles the DELETE /flows/{flowID}/cards/{cardID} request.
func (s *Server) RemoveCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	_, err := s.Sessions.Edit(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		if !ed.RemoveCard(ctx, cardID) {
			return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
		}
		return nil
	})
	if err != nil {
		s.fail(w, "RemoveCard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CardEdges handles the GET /flows/{flowID}/cards/{cardID}/edges request.
func (s *Server) CardEdges(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	var resp edgesResponse
	err := s.Sessions.View(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		if ed.Graph().Lookup(cardID) == nil {
			return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
		}
		out, in := ed.Edges(cardID)
		resp = edgesResponse{Outgoing: cardIDs(out), Incoming: cardIDs(in)}
		return nil
	})
	if err != nil {
		s.fail(w, "CardEdges", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PickDestination handles the PUT /flows/{flowID}/cards/{cardID}/references/{field} request.
func (s *Server) PickDestination(w http.ResponseWriter, r *http.Request) {
	var body destinationRequest
	if !s.decode(w, r, "PickDestination", &body) {
		return
	}
	cardID := chi.URLParam(r, "cardID")
	field := chi.URLParam(r, "field")
	var issues []domain.Issue
	_, err := s.Sessions.Edit(r.Context(), chi.URLParam(r, "flowID"), func(ctx context.Context, ed *cardflow.Editor) error {
		var err error
		issues, err = ed.OnReferencePicked(ctx, cardID, field, body.Destination)
		return err
	})
	if err != nil {
		s.fail(w, "PickDestination", err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var flowID, watch string
	if err := runtime.BindQueryParameter("form", true, true, "flow_id", r.URL.Query(), &flowID); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter flow_id: %v", err), http.StatusBadRequest)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter watch: %v", err), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(flowID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "flow", flowID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether the diff in msg touches any watched section.
// Undecodable messages are passed through.
func matchesWatch(msg string, watchList []string) bool {
	var diff domain.FlowDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "added":
			if len(diff.Added) > 0 {
				return true
			}
		case "removed":
			if len(diff.Removed) > 0 {
				return true
			}
		case "changed":
			if len(diff.Changed) > 0 {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn(op+": invalid request body", "err", err)
		return false
	}
	return true
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrFlowExists), errors.Is(err, domain.ErrDuplicateCardID),
		errors.Is(err, domain.ErrMalformedFlow):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidFlowID),
		errors.Is(err, domain.ErrImmutableField),
		errors.Is(err, domain.ErrUnknownReference),
		errors.Is(err, domain.ErrUnknownCardType),
		errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func cardIDs(cards []card.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID())
	}
	return out
}
