package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/registry"
	"github.com/aretw0/cardflow/pkg/schema"
)

// Graph is the flow document: cards in authoring order plus an id index.
// It is not safe for concurrent use; see session.Manager.
type Graph struct {
	registry *registry.Registry
	resolver Resolver
	logger   *slog.Logger

	cards []card.Card
	index map[string]card.Card

	loadIssues []domain.Issue
	synthetic  map[string]card.Card
}

var _ card.Graph = (*Graph)(nil)

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		registry:  registry.Default(),
		logger:    logging.NewNop(),
		index:     make(map[string]card.Card),
		synthetic: make(map[string]card.Card),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load creates a graph from defs. See (*Graph).Load.
func Load(defs []domain.Definition, opts ...Option) *Graph {
	g := New(opts...)
	g.Load(defs)
	return g
}

// Load replaces the graph's contents with defs, in order.
// Definitions without an id, or repeating an earlier id, are skipped and
// reported as load issues. Unknown types become card.Unsupported.
// The graph keeps the given definitions; edits are visible to the caller.
func (g *Graph) Load(defs []domain.Definition) {
	g.cards = make([]card.Card, 0, len(defs))
	g.index = make(map[string]card.Card, len(defs))
	g.loadIssues = nil
	g.synthetic = make(map[string]card.Card)

	for i, def := range defs {
		if _, err := g.AddCard(def); err != nil {
			g.logger.Warn("skipping card definition", "index", i, "error", err)
			g.loadIssues = append(g.loadIssues, malformed(def, i, err))
		}
	}
	g.logger.Debug("flow loaded", "cards", len(g.cards), "skipped", len(g.loadIssues))
}

func malformed(def domain.Definition, index int, err error) domain.Issue {
	msg := fmt.Sprintf("Card #%d has no id.", index+1)
	if errors.Is(err, domain.ErrDuplicateCardID) {
		msg = fmt.Sprintf("Duplicate card id %q.", def.ID())
	}
	return domain.Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  msg,
		Kind:     domain.IssueMalformedDefinition,
		Field:    domain.FieldID,
	}
}

// wrap builds the card for def, falling back to a placeholder for
// unknown types.
func (g *Graph) wrap(def domain.Definition) card.Card {
	c, err := g.registry.Create(def, g)
	if err != nil {
		return card.NewUnsupported(def, g)
	}
	return c
}

// AddCard appends def to the graph.
func (g *Graph) AddCard(def domain.Definition) (card.Card, error) {
	id := def.ID()
	if id == "" {
		return nil, domain.ErrMissingCardID
	}
	if _, ok := g.index[id]; ok {
		return nil, fmt.Errorf("card %q: %w", id, domain.ErrDuplicateCardID)
	}
	c := g.wrap(def)
	g.cards = append(g.cards, c)
	g.index[id] = c
	delete(g.synthetic, id)
	return c, nil
}

// RemoveCard removes the card with id. References to it are left in place
// and surface as dangling-reference issues.
func (g *Graph) RemoveCard(id string) (card.Card, bool) {
	c, ok := g.index[id]
	if !ok {
		return nil, false
	}
	delete(g.index, id)
	for i, x := range g.cards {
		if x == c {
			g.cards = append(g.cards[:i], g.cards[i+1:]...)
			break
		}
	}
	return c, true
}

// RenameReference rewrites every reference to oldID into newID across the
// graph and returns how many cards changed.
func (g *Graph) RenameReference(oldID, newID string) int {
	n := 0
	for _, c := range g.cards {
		if c.RewriteReference(oldID, newID) {
			n++
		}
	}
	return n
}

// CollectIssues returns the load issues followed by every card's issues,
// in graph order.
func (g *Graph) CollectIssues() []domain.Issue {
	issues := make([]domain.Issue, 0, len(g.loadIssues))
	issues = append(issues, g.loadIssues...)
	for _, c := range g.cards {
		issues = append(issues, c.Validate()...)
	}
	return issues
}

// LoadIssues returns the issues recorded by the last Load.
func (g *Graph) LoadIssues() []domain.Issue {
	return append([]domain.Issue(nil), g.loadIssues...)
}

// Lookup returns the card with id, or nil.
func (g *Graph) Lookup(id string) card.Card {
	if c, ok := g.index[id]; ok {
		return c
	}
	return nil
}

// Cards returns the cards in authoring order.
func (g *Graph) Cards() []card.Card {
	out := make([]card.Card, len(g.cards))
	copy(out, g.cards)
	return out
}

// Resolve asks the auxiliary resolver for id. Results are cached per id.
func (g *Graph) Resolve(id string) card.Card {
	if g.resolver == nil || id == "" {
		return nil
	}
	if c, ok := g.synthetic[id]; ok {
		return c
	}
	def := g.resolver(id)
	if def == nil {
		return nil
	}
	if def.ID() == "" {
		def = def.Clone()
		def[domain.FieldID] = id
	}
	c := g.wrap(def)
	g.synthetic[id] = c
	return c
}

// Outgoing returns the cards the card with id points to.
func (g *Graph) Outgoing(id string) []card.Card {
	c := g.Lookup(id)
	if c == nil {
		return []card.Card{}
	}
	return c.ResolveOutgoing()
}

// Incoming returns the cards pointing to the card with id.
// It works for removed ids too, listing the cards still referencing them.
func (g *Graph) Incoming(id string) []card.Card {
	if c := g.Lookup(id); c != nil {
		return c.ResolveIncoming()
	}
	out := []card.Card{}
	for _, c := range g.cards {
		for _, ref := range c.References() {
			if ref.Target == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SetField sets a field of a card after checking it against the card type's
// schema. A field naming one of the card's references is routed through
// SetReference, so nested paths such as options.0.next_id reach the option.
// Other dotted paths are rejected; undeclared flat fields are accepted as-is.
func (g *Graph) SetField(cardID, field string, value any) error {
	c := g.Lookup(cardID)
	if c == nil {
		return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
	}
	if field == domain.FieldID || field == domain.FieldType {
		return fmt.Errorf("field %q: %w", field, domain.ErrImmutableField)
	}

	for _, ref := range c.References() {
		if ref.Field != field {
			continue
		}
		if err := schema.ValidateField(schema.Schema{field: schema.Ref()}, field, value); err != nil {
			return err
		}
		id, _ := value.(string)
		return c.SetReference(field, id)
	}
	if strings.Contains(field, ".") {
		return fmt.Errorf("field %q: %w", field, domain.ErrUnknownReference)
	}

	if err := schema.ValidateField(g.registry.Fields(c.Type()), field, value); err != nil {
		return err
	}
	c.Definition()[field] = value
	return nil
}

// SetReference points a reference field of a card at destID ("" clears it).
func (g *Graph) SetReference(cardID, field, destID string) error {
	c := g.Lookup(cardID)
	if c == nil {
		return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
	}
	return c.SetReference(field, destID)
}

// Definitions returns the live definitions in authoring order.
func (g *Graph) Definitions() []domain.Definition {
	out := make([]domain.Definition, len(g.cards))
	for i, c := range g.cards {
		out[i] = c.Definition()
	}
	return out
}

// Snapshot returns deep copies of the definitions in authoring order.
func (g *Graph) Snapshot() []domain.Definition {
	out := make([]domain.Definition, len(g.cards))
	for i, c := range g.cards {
		out[i] = c.Definition().Clone()
	}
	return out
}

// Len returns the number of cards.
func (g *Graph) Len() int { return len(g.cards) }

// Registry returns the registry the graph creates cards with.
func (g *Graph) Registry() *registry.Registry { return g.registry }

// Search returns the cards whose search text contains query, ignoring case.
// An empty query matches every card.
func (g *Graph) Search(query string) []card.Card {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []card.Card{}
	for _, c := range g.cards {
		if q == "" || strings.Contains(strings.ToLower(c.SearchText()), q) {
			out = append(out, c)
		}
	}
	return out
}

// Unreachable crawls the graph breadth-first from entryID and returns the
// cards that were never visited, in authoring order.
func (g *Graph) Unreachable(entryID string) ([]card.Card, error) {
	entry := g.Lookup(entryID)
	if entry == nil {
		return nil, fmt.Errorf("entry card %q: %w", entryID, domain.ErrCardNotFound)
	}

	visited := map[string]bool{}
	queue := []card.Card{entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.ID()] {
			continue
		}
		visited[current.ID()] = true
		for _, next := range current.ResolveOutgoing() {
			if !visited[next.ID()] {
				queue = append(queue, next)
			}
		}
	}

	out := []card.Card{}
	for _, c := range g.cards {
		if !visited[c.ID()] {
			out = append(out, c)
		}
	}
	return out, nil
}
