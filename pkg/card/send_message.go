package card

import (
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

const defaultMessage = "(Message goes here...)"

var sendMessageDescriptor = Descriptor{
	Type:   domain.CardTypeSendMessage,
	Label:  "Send Message",
	Fields: commonFields.Merge(schema.Schema{"message": schema.String()}),
	New: func(def domain.Definition, g Graph) Card {
		return &SendMessage{Base: newBase(def, g)}
	},
	Default: func(displayName string) domain.Definition {
		def := baseDefinition(domain.CardTypeSendMessage, displayName)
		def["message"] = defaultMessage
		return def
	},
}

// SendMessage sends a text message and moves on to next_id.
type SendMessage struct {
	Base
}

type sendMessageFields struct {
	Message string `mapstructure:"message"`
}

func (c *SendMessage) fields() sendMessageFields {
	var f sendMessageFields
	c.decodeFields(&f)
	return f
}

func (c *SendMessage) References() []domain.Reference {
	return []domain.Reference{nextReference(c.def)}
}

func (c *SendMessage) SetReference(field, id string) error { return setNext(c.def, field, id) }

func (c *SendMessage) Validate() []domain.Issue {
	return c.check(c.References(), func() []domain.Issue {
		if isBlank(c.fields().Message) {
			return []domain.Issue{domain.EmptyField(c.def, "message", "Message")}
		}
		return nil
	})
}

func (c *SendMessage) ResolveOutgoing() []Card { return c.outgoing(c.References()) }

func (c *SendMessage) RewriteReference(oldID, newID string) bool {
	return rewrite(c, oldID, newID)
}

func (c *SendMessage) SearchText() string {
	return c.searchText(c.Type(), c.fields().Message, c.def.Ref(domain.FieldNextID))
}
