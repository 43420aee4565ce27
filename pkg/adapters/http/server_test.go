package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func welcomeFlow() []domain.Definition {
	return []domain.Definition{
		{"id": "welcome", "type": "send-message", "name": "Welcome", "message": "Hi", "next_id": "bye"},
		{"id": "bye", "type": "end", "name": "Bye"},
	}
}

type fixture struct {
	store   *memory.Store
	streams *StreamManager
	metrics *observability.Metrics
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStoreWith(map[string][]domain.Definition{"demo": welcomeFlow()})
	streams := NewStreamManager(nil)
	metrics := observability.NewMetrics()
	mgr := session.NewManager(store,
		session.WithOnSaved(streams.PublishDiff),
		session.WithHooks(metrics.Hooks()),
	)
	return &fixture{
		store:   store,
		streams: streams,
		metrics: metrics,
		handler: NewHandler(mgr, WithStreams(streams), WithMetrics(metrics)),
	}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "cardflow-http", info["app"])
	assert.Equal(t, "0.1.0", info["api_version"])
	assert.NotEmpty(t, info["version"])
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/flows/{flowId}/issues"))

	w := newFixture(t).do(t, "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestListCardTypes(t *testing.T) {
	w := newFixture(t).do(t, "GET", "/types", nil)
	require.Equal(t, http.StatusOK, w.Code)

	types := decodeBody[[]map[string]any](t, w)
	require.NotEmpty(t, types)
	assert.Equal(t, "send-message", types[0]["type"])
	assert.Equal(t, "Send Message", types[0]["label"])
}

func TestFlowLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/flows", map[string]any{"id": "other"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, "POST", "/flows", map[string]any{"id": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, "POST", "/flows", map[string]any{"id": "../escape"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "GET", "/flows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"demo", "other"}, decodeBody[[]string](t, w))

	w = f.do(t, "PUT", "/flows/other", welcomeFlow())
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, "GET", "/flows/other", nil)
	require.Equal(t, http.StatusOK, w.Code)
	defs := decodeBody[[]map[string]any](t, w)
	require.Len(t, defs, 2)
	assert.Equal(t, "welcome", defs[0]["id"])

	w = f.do(t, "DELETE", "/flows/other", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/flows/other", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListIssues(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/flows/demo/issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]domain.Issue](t, w))

	w = f.do(t, "PUT", "/flows/demo/cards/welcome/references/next_id", map[string]string{"destination": "ghost"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issues := decodeBody[[]domain.Issue](t, w)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueDanglingReference, issues[0].Kind)

	w = f.do(t, "GET", "/flows/demo/issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]domain.Issue](t, w), 1)

	w = f.do(t, "GET", "/flows/missing/issues", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangeField(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "PATCH", "/flows/demo/cards/welcome", map[string]any{"field": "message", "value": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issues := decodeBody[[]domain.Issue](t, w)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueEmptyField, issues[0].Kind)

	defs, err := f.store.Load(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "", defs[0]["message"])

	w = f.do(t, "PATCH", "/flows/demo/cards/welcome", map[string]any{"field": "message", "value": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "PATCH", "/flows/demo/cards/welcome", map[string]any{"field": "id", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "PATCH", "/flows/demo/cards/ghost", map[string]any{"field": "message", "value": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddRemoveAndRename(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/flows/demo/cards", map[string]string{"type": "end", "name": "Goodbye"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decodeBody[map[string]any](t, w)
	newID, _ := added["id"].(string)
	require.NotEmpty(t, newID)

	w = f.do(t, "POST", "/flows/demo/cards", map[string]string{"type": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "POST", "/flows/demo/rename", map[string]string{"old": "bye", "new": newID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"changed": 1}, decodeBody[map[string]int](t, w))

	w = f.do(t, "GET", "/flows/demo/cards/"+newID+"/edges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	edges := decodeBody[edgesResponse](t, w)
	assert.Empty(t, edges.Outgoing)
	assert.Equal(t, []string{"welcome"}, edges.Incoming)

	w = f.do(t, "DELETE", "/flows/demo/cards/bye", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "DELETE", "/flows/demo/cards/bye", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchCards(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/flows/demo/search?q=HI", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"welcome"}, decodeBody[[]string](t, w))

	w = f.do(t, "GET", "/flows/demo/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]string](t, w), 2)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, "GET", "/flows/demo/issues", nil)
	f.do(t, "PATCH", "/flows/demo/cards/welcome", map[string]any{"field": "message", "value": "Hello"})

	w := f.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "cardflow_validation_duration_seconds")
	assert.Contains(t, body, `cardflow_editor_events_total{flow="demo",type="mark_changed"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/events?flow_id=demo&watch=changed", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	require.Eventually(t, func() bool { return f.streams.Subscribers("demo") == 1 },
		time.Second, 10*time.Millisecond)

	// Filtered out: only adds a card.
	w := f.do(t, "POST", "/flows/demo/cards", map[string]string{"type": "end", "name": "Extra"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "PATCH", "/flows/demo/cards/welcome", map[string]any{"field": "message", "value": "Hello there"})
	require.Equal(t, http.StatusOK, w.Code)

	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"Hello there"`)
	assert.NotContains(t, output, `"added"`)
	assert.Equal(t, 0, f.streams.Subscribers("demo"))
}

func TestSubscribeEvents_RequiresFlowID(t *testing.T) {
	w := newFixture(t).do(t, "GET", "/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchesWatch(t *testing.T) {
	msg := `{"flow_id":"f","removed":["a"]}`
	assert.True(t, matchesWatch(msg, []string{"added", " removed"}))
	assert.False(t, matchesWatch(msg, []string{"changed"}))
	assert.True(t, matchesWatch("not json", []string{"changed"}))
	assert.False(t, strings.Contains(msg, "changed"))
}
