package card

import (
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

var endDescriptor = Descriptor{
	Type:   domain.CardTypeEnd,
	Label:  "End Flow",
	Fields: schema.Schema{domain.FieldName: schema.String()},
	New: func(def domain.Definition, g Graph) Card {
		return &End{Base: newBase(def, g)}
	},
	Default: func(displayName string) domain.Definition {
		def := baseDefinition(domain.CardTypeEnd, displayName)
		delete(def, domain.FieldNextID)
		return def
	},
}

// End terminates a conversation. It has no outgoing references.
type End struct {
	Base
}

func (c *End) References() []domain.Reference { return []domain.Reference{} }

func (c *End) SetReference(string, string) error { return domain.ErrUnknownReference }

func (c *End) Validate() []domain.Issue { return c.check(nil, nil) }

func (c *End) ResolveOutgoing() []Card { return []Card{} }

func (c *End) RewriteReference(string, string) bool { return false }

func (c *End) SearchText() string { return c.searchText(c.Type()) }
