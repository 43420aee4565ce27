package card

import (
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

const (
	defaultContext  = "(Context goes here...)"
	defaultMediaURL = "https://placehold.co/600x400"
)

var sendMediaMessageDescriptor = Descriptor{
	Type:  domain.CardTypeSendMediaMessage,
	Label: "Twilio: Send Media Message",
	Fields: commonFields.Merge(schema.Schema{
		"context":   schema.String(),
		"message":   schema.String(),
		"media_url": schema.String(),
	}),
	New: func(def domain.Definition, g Graph) Card {
		return &SendMediaMessage{Base: newBase(def, g)}
	},
	Default: func(displayName string) domain.Definition {
		def := baseDefinition(domain.CardTypeSendMediaMessage, displayName)
		def["context"] = defaultContext
		def["message"] = defaultMessage
		def["media_url"] = defaultMediaURL
		return def
	},
}

// SendMediaMessage sends a message with an attached media url.
type SendMediaMessage struct {
	Base
}

type sendMediaMessageFields struct {
	Context  string `mapstructure:"context"`
	Message  string `mapstructure:"message"`
	MediaURL string `mapstructure:"media_url"`
}

func (c *SendMediaMessage) fields() sendMediaMessageFields {
	var f sendMediaMessageFields
	c.decodeFields(&f)
	return f
}

func (c *SendMediaMessage) References() []domain.Reference {
	return []domain.Reference{nextReference(c.def)}
}

func (c *SendMediaMessage) SetReference(field, id string) error { return setNext(c.def, field, id) }

func (c *SendMediaMessage) Validate() []domain.Issue {
	return c.check(c.References(), func() []domain.Issue {
		url := c.fields().MediaURL
		switch {
		case isBlank(url):
			return []domain.Issue{domain.EmptyField(c.def, "media_url", "Media URL")}
		case !isURL(url):
			return []domain.Issue{domain.InvalidField(c.def, "media_url", "Media URL is not a valid URL.")}
		}
		return nil
	})
}

func (c *SendMediaMessage) ResolveOutgoing() []Card { return c.outgoing(c.References()) }

func (c *SendMediaMessage) RewriteReference(oldID, newID string) bool {
	return rewrite(c, oldID, newID)
}

func (c *SendMediaMessage) SearchText() string {
	f := c.fields()
	return c.searchText("echo-media", f.Message, f.MediaURL, c.def.Ref(domain.FieldNextID))
}
