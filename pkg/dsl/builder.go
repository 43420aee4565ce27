package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/registry"
)

// Builder manages the flow construction.
type Builder struct {
	registry *registry.Registry
	order    []string
	cards    map[string]*CardBuilder
}

// New creates a new flow builder backed by the default card registry.
func New() *Builder {
	return NewWithRegistry(registry.Default())
}

// NewWithRegistry creates a builder that takes card defaults from r.
func NewWithRegistry(r *registry.Registry) *Builder {
	return &Builder{
		registry: r,
		cards:    make(map[string]*CardBuilder),
	}
}

// Add starts a card of cardType. If the card already exists, it returns the
// existing builder unchanged.
func (b *Builder) Add(id, cardType string) *CardBuilder {
	if cb, ok := b.cards[id]; ok {
		return cb
	}
	cb := &CardBuilder{
		id:       id,
		cardType: cardType,
		fields:   domain.Definition{},
		builder:  b,
	}
	b.cards[id] = cb
	b.order = append(b.order, id)
	return cb
}

// Message adds a send-message card.
func (b *Builder) Message(id, text string) *CardBuilder {
	return b.Add(id, domain.CardTypeSendMessage).Set("message", text)
}

// Media adds a send-media-message card.
func (b *Builder) Media(id, text, mediaURL string) *CardBuilder {
	return b.Add(id, domain.CardTypeSendMediaMessage).Set("message", text).Set("media_url", mediaURL)
}

// Menu adds a menu card with no options.
func (b *Builder) Menu(id, prompt string) *CardBuilder {
	cb := b.Add(id, domain.CardTypeMenu).Set("prompt", prompt)
	if _, ok := cb.fields["options"]; !ok {
		cb.fields["options"] = []any{}
	}
	return cb
}

// Webhook adds a webhook card.
func (b *Builder) Webhook(id, method, url string) *CardBuilder {
	return b.Add(id, domain.CardTypeWebhook).Set("method", method).Set("url", url)
}

// End adds an end card.
func (b *Builder) End(id string) *CardBuilder {
	return b.Add(id, domain.CardTypeEnd)
}

// Build returns the definitions in the order the cards were added.
// Links are not checked; validate the flow to find broken ones.
func (b *Builder) Build() ([]domain.Definition, error) {
	defs := make([]domain.Definition, 0, len(b.order))
	var errs []error
	for _, id := range b.order {
		def, err := b.cards[id].definition()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build flow: %w", errors.Join(errs...))
	}
	return defs, nil
}
