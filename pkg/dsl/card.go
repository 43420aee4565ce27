package dsl

import (
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

// CardBuilder provides a fluent API for configuring a card.
type CardBuilder struct {
	id       string
	cardType string
	name     string
	fields   domain.Definition
	builder  *Builder
}

// Name sets the display name. It defaults to the card id.
func (c *CardBuilder) Name(name string) *CardBuilder {
	c.name = name
	return c
}

// Set assigns a raw field, overriding the type's default.
func (c *CardBuilder) Set(field string, value any) *CardBuilder {
	c.fields[field] = value
	return c
}

// Go links the card's next_id to target.
func (c *CardBuilder) Go(target string) *CardBuilder {
	return c.Set(domain.FieldNextID, target)
}

// Error links a webhook's failure branch to target.
func (c *CardBuilder) Error(target string) *CardBuilder {
	return c.Set("error_id", target)
}

// Option appends a menu option branching to target.
func (c *CardBuilder) Option(label, target string) *CardBuilder {
	options, _ := c.fields["options"].([]any)
	c.fields["options"] = append(options, map[string]any{
		"label":            label,
		domain.FieldNextID: target,
	})
	return c
}

// Message chains to the builder to add the next card.
func (c *CardBuilder) Message(id, text string) *CardBuilder { return c.builder.Message(id, text) }

// Media chains to the builder to add the next card.
func (c *CardBuilder) Media(id, text, mediaURL string) *CardBuilder {
	return c.builder.Media(id, text, mediaURL)
}

// Menu chains to the builder to add the next card.
func (c *CardBuilder) Menu(id, prompt string) *CardBuilder { return c.builder.Menu(id, prompt) }

// Webhook chains to the builder to add the next card.
func (c *CardBuilder) Webhook(id, method, url string) *CardBuilder {
	return c.builder.Webhook(id, method, url)
}

// End chains to the builder to add the next card.
func (c *CardBuilder) End(id string) *CardBuilder { return c.builder.End(id) }

// Build chains to the builder.
func (c *CardBuilder) Build() ([]domain.Definition, error) { return c.builder.Build() }

func (c *CardBuilder) definition() (domain.Definition, error) {
	if c.id == "" {
		return nil, fmt.Errorf("card of type %q has no id", c.cardType)
	}
	name := c.name
	if name == "" {
		name = c.id
	}
	def, err := c.builder.registry.CreateDefault(c.cardType, name)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", c.id, err)
	}
	for k, v := range c.fields {
		def[k] = v
	}
	def[domain.FieldID] = c.id
	return def, nil
}
