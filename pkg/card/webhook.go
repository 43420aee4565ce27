package card

import (
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

const fieldErrorID = "error_id"

var webhookDescriptor = Descriptor{
	Type:  domain.CardTypeWebhook,
	Label: "Webhook",
	Fields: commonFields.Merge(schema.Schema{
		"url":        schema.String(),
		"method":     schema.String(),
		fieldErrorID: schema.Ref(),
	}),
	New: func(def domain.Definition, g Graph) Card {
		return &Webhook{Base: newBase(def, g)}
	},
	Default: func(displayName string) domain.Definition {
		def := baseDefinition(domain.CardTypeWebhook, displayName)
		def["url"] = ""
		def["method"] = "POST"
		def[fieldErrorID] = nil
		return def
	},
}

// Webhook calls an external endpoint. It continues to next_id on success and
// to error_id, when set, on failure.
type Webhook struct {
	Base
}

type webhookFields struct {
	URL    string `mapstructure:"url"`
	Method string `mapstructure:"method"`
}

func (c *Webhook) fields() webhookFields {
	var f webhookFields
	c.decodeFields(&f)
	return f
}

func (c *Webhook) References() []domain.Reference {
	return []domain.Reference{
		nextReference(c.def),
		{
			Field:  fieldErrorID,
			Label:  "Error node",
			Target: c.def.Ref(fieldErrorID),
		},
	}
}

func (c *Webhook) SetReference(field, id string) error {
	if field == fieldErrorID {
		c.def.SetRef(field, id)
		return nil
	}
	return setNext(c.def, field, id)
}

func (c *Webhook) Validate() []domain.Issue {
	return c.check(c.References(), func() []domain.Issue {
		var issues []domain.Issue
		f := c.fields()
		switch {
		case isBlank(f.URL):
			issues = append(issues, domain.EmptyField(c.def, "url", "URL"))
		case !isURL(f.URL):
			issues = append(issues, domain.InvalidField(c.def, "url", "URL is not a valid URL."))
		}
		if validate.Var(f.Method, "oneof=GET POST") != nil {
			issues = append(issues, domain.InvalidField(c.def, "method", "Method must be GET or POST."))
		}
		return issues
	})
}

func (c *Webhook) ResolveOutgoing() []Card { return c.outgoing(c.References()) }

func (c *Webhook) RewriteReference(oldID, newID string) bool {
	return rewrite(c, oldID, newID)
}

func (c *Webhook) SearchText() string {
	f := c.fields()
	return c.searchText(c.Type(), f.Method, f.URL, c.def.Ref(domain.FieldNextID))
}
