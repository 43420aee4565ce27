package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsEditorHints(t *testing.T) {
	m := observability.NewMetrics()
	ctx := context.Background()
	ed := cardflow.Open([]domain.Definition{
		{"id": "a", "type": domain.CardTypeSendMessage, "message": "hi"},
		{"id": "b", "type": domain.CardTypeEnd},
	}, cardflow.WithFlowID("f"), cardflow.WithHooks(m.Hooks()))

	_, err := ed.OnDestinationPicked(ctx, "a", "b")
	require.NoError(t, err)

	expected := `
# HELP cardflow_editor_events_total Total number of editor hints emitted, by type
# TYPE cardflow_editor_events_total counter
cardflow_editor_events_total{flow="f",type="load_node"} 1
cardflow_editor_events_total{flow="f",type="mark_changed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cardflow_editor_events_total"))
}

func TestMetrics_ObserveValidation(t *testing.T) {
	m := observability.NewMetrics()
	ed := cardflow.Open([]domain.Definition{
		{"id": "a", "type": domain.CardTypeSendMessage, "message": "hi", "next_id": "a"},
		{"id": "b", "type": domain.CardTypeSendMessage, "message": "hi", "next_id": "ghost"},
	})

	issues := m.ObserveValidation("f", ed.Issues)
	assert.Len(t, issues, 2)

	expected := `
# HELP cardflow_flow_issues Issues reported by the last validation of a flow, by kind
# TYPE cardflow_flow_issues gauge
cardflow_flow_issues{flow="f",kind="dangling_reference"} 1
cardflow_flow_issues{flow="f",kind="empty_field"} 0
cardflow_flow_issues{flow="f",kind="invalid_field"} 0
cardflow_flow_issues{flow="f",kind="malformed_definition"} 0
cardflow_flow_issues{flow="f",kind="missing_reference"} 0
cardflow_flow_issues{flow="f",kind="self_reference"} 1
cardflow_flow_issues{flow="f",kind="unsupported_type"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cardflow_flow_issues"))
	n, err := testutil.GatherAndCount(m.Registry(), "cardflow_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m.Forget("f")
	n, err = testutil.GatherAndCount(m.Registry(), "cardflow_flow_issues")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveValidation("f", func() []domain.Issue { return nil })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "cardflow_validation_duration_seconds")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ed := cardflow.Open([]domain.Definition{{"id": "a", "type": domain.CardTypeSendMessage}},
		cardflow.WithFlowID("f"), cardflow.WithHooks(observability.LoggingHooks(logger)))
	require.NoError(t, ed.OnFieldChange(context.Background(), "a", "message", "hello"))

	assert.Contains(t, buf.String(), "msg=mark_changed")
	assert.Contains(t, buf.String(), "card_id=a")
	assert.Contains(t, buf.String(), "field=message")
}
