package card

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

// Base carries the definition and graph handle shared by every card type.
type Base struct {
	def   domain.Definition
	graph Graph
}

func newBase(def domain.Definition, g Graph) Base {
	if def == nil {
		def = domain.Definition{}
	}
	return Base{def: def, graph: g}
}

func (b *Base) ID() string                    { return b.def.ID() }
func (b *Base) Type() string                  { return b.def.Type() }
func (b *Base) Name() string                  { return b.def.Name() }
func (b *Base) Definition() domain.Definition { return b.def }

// resolve finds a card by id, falling back to the graph's auxiliary resolver.
func (b *Base) resolve(id string) Card {
	if b.graph == nil || id == "" {
		return nil
	}
	if c := b.graph.Lookup(id); c != nil {
		return c
	}
	return b.graph.Resolve(id)
}

// IsValidDestination reports whether id names a card the graph can resolve.
func (b *Base) IsValidDestination(id string) bool {
	return b.resolve(id) != nil
}

// ResolveIncoming scans the graph for cards referencing this card.
// A self-looping card appears in its own incoming list.
func (b *Base) ResolveIncoming() []Card {
	out := []Card{}
	if b.graph == nil {
		return out
	}
	id := b.ID()
	for _, c := range b.graph.Cards() {
		for _, ref := range c.References() {
			if ref.Target == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// outgoing resolves refs to distinct cards. Unresolvable targets are skipped.
func (b *Base) outgoing(refs []domain.Reference) []Card {
	out := []Card{}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if !ref.IsSet() || seen[ref.Target] {
			continue
		}
		if c := b.resolve(ref.Target); c != nil {
			seen[ref.Target] = true
			out = append(out, c)
		}
	}
	return out
}

// check runs the reference checks around the type-specific content checks.
// content runs only when the primary reference is set and not a self-loop,
// or when the card declares no references at all.
func (b *Base) check(refs []domain.Reference, content func() []domain.Issue) []domain.Issue {
	issues := []domain.Issue{}
	id := b.ID()

	primaryOK := true
	candidates := make([]domain.Reference, 0, len(refs))

	for i, ref := range refs {
		switch {
		case !ref.IsSet():
			if ref.Required {
				issues = append(issues, domain.MissingReference(b.def, ref))
				if i == 0 {
					primaryOK = false
				}
			}
		case ref.Target == id:
			issues = append(issues, domain.SelfReference(b.def, ref))
			if i == 0 {
				primaryOK = false
			}
		default:
			candidates = append(candidates, ref)
		}
	}

	if primaryOK && content != nil {
		issues = append(issues, content()...)
	}

	for _, ref := range candidates {
		if !b.IsValidDestination(ref.Target) {
			issues = append(issues, domain.DanglingReference(b.def, ref))
		}
	}

	return issues
}

// decodeFields copies the definition's type-specific fields into out.
func (b *Base) decodeFields(out any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return
	}
	// Type mismatches leave the zero value, which the content checks report as empty.
	_ = dec.Decode(map[string]any(b.def))
}

// searchText joins the base fields with extra values, skipping blanks.
func (b *Base) searchText(values ...string) string {
	parts := []string{b.ID(), b.Name()}
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// nextReference describes the single next_id field used by linear card types.
func nextReference(def domain.Definition) domain.Reference {
	return domain.Reference{
		Field:    domain.FieldNextID,
		Label:    "Next node",
		Target:   def.Ref(domain.FieldNextID),
		Required: true,
	}
}

// setNext implements SetReference for card types whose only reference is next_id.
func setNext(def domain.Definition, field, id string) error {
	if field != domain.FieldNextID {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	def.SetRef(domain.FieldNextID, id)
	return nil
}

// rewrite implements RewriteReference on top of References and SetReference.
func rewrite(c Card, oldID, newID string) bool {
	if oldID == "" || oldID == newID {
		return false
	}
	changed := false
	for _, ref := range c.References() {
		if ref.Target != oldID {
			continue
		}
		if err := c.SetReference(ref.Field, newID); err == nil {
			changed = true
		}
	}
	return changed
}

// isURL reports whether s is an absolute URL.
func isURL(s string) bool {
	return validate.Var(s, "url") == nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
