package cardflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flow"
)

// Editor is the entry point used by an editor surface.
// It applies user events to a flow graph and emits the surface hints.
type Editor struct {
	graph     *flow.Graph
	hooks     domain.EditorHooks
	logger    *slog.Logger
	flowID    string
	graphOpts []flow.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithHooks registers the surface callbacks.
func WithHooks(hooks domain.EditorHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithFlowID labels the flow in events and logs.
func WithFlowID(id string) Option {
	return func(e *Editor) {
		e.flowID = id
	}
}

// WithGraphOptions forwards options to the underlying flow graph
// (registry, auxiliary resolver).
func WithGraphOptions(opts ...flow.Option) Option {
	return func(e *Editor) {
		e.graphOpts = append(e.graphOpts, opts...)
	}
}

func newEditor(opts []Option) *Editor {
	e := &Editor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.flowID != "" {
		e.logger = e.logger.With("flow", e.flowID)
	}
	return e
}

// New creates an editor over an empty flow.
func New(opts ...Option) *Editor {
	return Open(nil, opts...)
}

// Open creates an editor over the given definitions.
func Open(defs []domain.Definition, opts ...Option) *Editor {
	e := newEditor(opts)
	gopts := append([]flow.Option{flow.WithLogger(e.logger)}, e.graphOpts...)
	e.graph = flow.Load(defs, gopts...)
	return e
}

// Attach creates an editor over an existing graph.
func Attach(g *flow.Graph, opts ...Option) *Editor {
	e := newEditor(opts)
	e.graph = g
	return e
}

// Graph returns the underlying flow graph.
func (e *Editor) Graph() *flow.Graph { return e.graph }

// FlowID returns the flow label, possibly empty.
func (e *Editor) FlowID() string { return e.flowID }

// LoadCard materializes a card from stored data and adds it to the flow.
func (e *Editor) LoadCard(ctx context.Context, def domain.Definition) (card.Card, error) {
	c, err := e.graph.AddCard(def)
	if err != nil {
		return nil, err
	}
	e.markChanged(ctx, c.ID(), "")
	return c, nil
}

// OnFieldChange applies a field edit. The value must already carry the
// field's type; the surface translates control values before calling in.
func (e *Editor) OnFieldChange(ctx context.Context, cardID, field string, value any) error {
	if err := e.graph.SetField(cardID, field, value); err != nil {
		e.logger.Debug("field change rejected", "card", cardID, "field", field, "error", err)
		return err
	}
	e.markChanged(ctx, cardID, field)
	return nil
}

// OnDestinationPicked points the card's next_id at destinationID and returns
// the card's issues after the change.
func (e *Editor) OnDestinationPicked(ctx context.Context, cardID, destinationID string) ([]domain.Issue, error) {
	return e.OnReferencePicked(ctx, cardID, domain.FieldNextID, destinationID)
}

// OnReferencePicked points any reference field of the card at destinationID
// ("" clears it) and returns the card's issues after the change.
// When the destination resolves, the surface is asked to load it.
func (e *Editor) OnReferencePicked(ctx context.Context, cardID, field, destinationID string) ([]domain.Issue, error) {
	if err := e.graph.SetReference(cardID, field, destinationID); err != nil {
		return nil, err
	}
	e.markChanged(ctx, cardID, field)

	if dest := e.graph.Lookup(destinationID); dest != nil {
		e.loadNode(ctx, dest)
	} else if dest := e.graph.Resolve(destinationID); dest != nil {
		e.loadNode(ctx, dest)
	}
	return e.graph.Lookup(cardID).Validate(), nil
}

// AddCard creates a card of cardType with default contents and adds it.
func (e *Editor) AddCard(ctx context.Context, cardType, displayName string) (card.Card, error) {
	def, err := e.graph.Registry().CreateDefault(cardType, displayName)
	if err != nil {
		return nil, err
	}
	c, err := e.graph.AddCard(def)
	if err != nil {
		return nil, err
	}
	e.markChanged(ctx, c.ID(), "")
	e.loadNode(ctx, c)
	return c, nil
}

// RemoveCard removes a card. References to it are left dangling; use
// RenameReference to repoint them.
func (e *Editor) RemoveCard(ctx context.Context, id string) bool {
	if _, ok := e.graph.RemoveCard(id); !ok {
		return false
	}
	e.markChanged(ctx, id, "")
	return true
}

// RenameReference repoints every reference to oldID at newID and returns
// how many cards changed. Each changed card is marked.
func (e *Editor) RenameReference(ctx context.Context, oldID, newID string) int {
	var touched []string
	if oldID != "" && oldID != newID {
		for _, c := range e.graph.Incoming(oldID) {
			touched = append(touched, c.ID())
		}
	}
	n := e.graph.RenameReference(oldID, newID)
	for _, id := range touched {
		e.markChanged(ctx, id, "")
	}
	return n
}

// Issues collects every issue of the flow.
func (e *Editor) Issues() []domain.Issue {
	return e.graph.CollectIssues()
}

// Edges returns the cards the card points to and the cards pointing to it,
// for highlighting.
func (e *Editor) Edges(id string) (outgoing, incoming []card.Card) {
	return e.graph.Outgoing(id), e.graph.Incoming(id)
}

func (e *Editor) markChanged(ctx context.Context, cardID, field string) {
	if e.hooks.OnMarkChanged == nil {
		return
	}
	e.hooks.OnMarkChanged(ctx, &domain.ChangeEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventMarkChanged,
			FlowID:    e.flowID,
		},
		CardID: cardID,
		Field:  field,
	})
}

func (e *Editor) loadNode(ctx context.Context, c card.Card) {
	if e.hooks.OnLoadNode == nil {
		return
	}
	e.hooks.OnLoadNode(ctx, &domain.LoadNodeEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventLoadNode,
			FlowID:    e.flowID,
		},
		CardID:     c.ID(),
		Definition: c.Definition().Clone(),
	})
}
