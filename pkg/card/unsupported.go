package card

import (
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Unsupported stands in for a definition whose type no registry knows.
// It keeps the definition intact and still exposes next_id when present,
// so edges and renames keep working across it.
type Unsupported struct {
	Base
}

// NewUnsupported wraps def as a placeholder card.
func NewUnsupported(def domain.Definition, g Graph) *Unsupported {
	return &Unsupported{Base: newBase(def, g)}
}

func (c *Unsupported) References() []domain.Reference {
	if !c.def.Has(domain.FieldNextID) {
		return []domain.Reference{}
	}
	ref := nextReference(c.def)
	ref.Required = false
	return []domain.Reference{ref}
}

func (c *Unsupported) SetReference(field, id string) error {
	if !c.def.Has(domain.FieldNextID) {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	return setNext(c.def, field, id)
}

func (c *Unsupported) Validate() []domain.Issue {
	msg := "Card has no type."
	if t := c.Type(); t != "" {
		msg = fmt.Sprintf("Unsupported card type %q.", t)
	}
	return []domain.Issue{{
		CardID:   c.ID(),
		CardName: c.Name(),
		Message:  msg,
		Kind:     domain.IssueUnsupportedType,
		Field:    domain.FieldType,
	}}
}

func (c *Unsupported) ResolveOutgoing() []Card { return c.outgoing(c.References()) }

func (c *Unsupported) RewriteReference(oldID, newID string) bool {
	return rewrite(c, oldID, newID)
}

func (c *Unsupported) SearchText() string { return c.searchText(c.Type()) }
