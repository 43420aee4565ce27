package card

import (
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/google/uuid"
)

// Graph is the lookup handle a card holds into its owning flow.
// It never transfers ownership; cards only read through it.
type Graph interface {
	// Lookup returns the card with id, or nil when absent.
	Lookup(id string) Card
	// Cards returns every card in authoring order.
	Cards() []Card
	// Resolve returns a synthetic or external target for id, or nil.
	// It is consulted only when Lookup finds nothing.
	Resolve(id string) Card
}

// Card is one typed node of the flow graph.
type Card interface {
	ID() string
	Type() string
	Name() string

	// Definition returns the live definition. Mutations through it are visible
	// to the graph; prefer the flow's edit operations.
	Definition() domain.Definition

	// References lists the reference fields declared by the card type,
	// in a stable order. The first one is the primary reference.
	References() []domain.Reference

	// SetReference points the reference field at id ("" clears it).
	// Returns domain.ErrUnknownReference if the card has no such field.
	SetReference(field, id string) error

	// Validate reports the card's defects. It never mutates state.
	Validate() []domain.Issue

	// ResolveOutgoing returns the distinct cards this card points to.
	ResolveOutgoing() []Card

	// ResolveIncoming returns every card pointing to this card.
	ResolveIncoming() []Card

	// RewriteReference replaces every reference equal to oldID with newID.
	// It reports whether anything changed.
	RewriteReference(oldID, newID string) bool

	// SearchText returns the text indexed by the editor's search box.
	SearchText() string
}

// Descriptor bundles what the registry knows about a card type.
type Descriptor struct {
	// Type is the discriminant stored in the definition's "type" field.
	Type string
	// Label is the human name shown in the card palette.
	Label string
	// Fields declares the typed fields accepted by edits.
	Fields schema.Schema
	// New wraps a definition of this type.
	New func(def domain.Definition, g Graph) Card
	// Default builds a fresh definition named displayName.
	Default func(displayName string) domain.Definition
}

// commonFields are declared by every card type.
var commonFields = schema.Schema{
	domain.FieldName:   schema.String(),
	domain.FieldNextID: schema.Ref(),
}

// NewID generates a fresh card id.
func NewID() string {
	return uuid.NewString()
}

// Builtins returns the descriptors of the built-in card types.
func Builtins() []Descriptor {
	return []Descriptor{
		sendMessageDescriptor,
		sendMediaMessageDescriptor,
		menuDescriptor,
		webhookDescriptor,
		endDescriptor,
	}
}

// baseDefinition returns the fields every fresh definition starts with.
func baseDefinition(cardType, displayName string) domain.Definition {
	return domain.Definition{
		domain.FieldID:     NewID(),
		domain.FieldType:   cardType,
		domain.FieldName:   displayName,
		domain.FieldNextID: nil,
	}
}
