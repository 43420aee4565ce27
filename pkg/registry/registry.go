package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

// Registry maps card type discriminants to their descriptors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]card.Descriptor
	order []string
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		types: make(map[string]card.Descriptor),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry with the built-in card types
// registered exactly once.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
		if err := RegisterBuiltins(defaultRegistry); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}

// RegisterBuiltins adds the built-in card types to r.
func RegisterBuiltins(r *Registry) error {
	for _, d := range card.Builtins() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a card type. The first registration of a type wins;
// later ones fail with domain.ErrDuplicateCardType.
func (r *Registry) Register(d card.Descriptor) error {
	if d.Type == "" || d.New == nil {
		return fmt.Errorf("invalid descriptor %q: %w", d.Type, domain.ErrUnknownCardType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[d.Type]; ok {
		return fmt.Errorf("card type %q: %w", d.Type, domain.ErrDuplicateCardType)
	}
	r.types[d.Type] = d
	r.order = append(r.order, d.Type)
	return nil
}

// Lookup returns the descriptor registered for cardType.
func (r *Registry) Lookup(cardType string) (card.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[cardType]
	return d, ok
}

// Create wraps def in the card implementation registered for its type.
// Unknown types return domain.ErrUnknownCardType.
func (r *Registry) Create(def domain.Definition, g card.Graph) (card.Card, error) {
	d, ok := r.Lookup(def.Type())
	if !ok {
		return nil, fmt.Errorf("card type %q: %w", def.Type(), domain.ErrUnknownCardType)
	}
	return d.New(def, g), nil
}

// CreateDefault builds a fresh definition of cardType named displayName,
// with a newly generated id and every reference unset.
func (r *Registry) CreateDefault(cardType, displayName string) (domain.Definition, error) {
	d, ok := r.Lookup(cardType)
	if !ok {
		return nil, fmt.Errorf("card type %q: %w", cardType, domain.ErrUnknownCardType)
	}
	if d.Default == nil {
		return domain.Definition{
			domain.FieldID:   card.NewID(),
			domain.FieldType: cardType,
			domain.FieldName: displayName,
		}, nil
	}
	return d.Default(displayName), nil
}

// Types lists the registered type names in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Label returns the palette label of cardType, falling back to the type name.
func (r *Registry) Label(cardType string) string {
	if d, ok := r.Lookup(cardType); ok && d.Label != "" {
		return d.Label
	}
	return cardType
}

// Fields returns the declared field schema of cardType, nil when unknown.
func (r *Registry) Fields(cardType string) schema.Schema {
	d, ok := r.Lookup(cardType)
	if !ok {
		return nil
	}
	return d.Fields
}

// Sorted lists the registered type names alphabetically.
func (r *Registry) Sorted() []string {
	out := r.Types()
	sort.Strings(out)
	return out
}
