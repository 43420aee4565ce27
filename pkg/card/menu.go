package card

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
)

const fieldOptions = "options"

var menuDescriptor = Descriptor{
	Type:  domain.CardTypeMenu,
	Label: "Menu",
	Fields: commonFields.Merge(schema.Schema{
		"prompt": schema.String(),
		fieldOptions: schema.Records(schema.Schema{
			"label":            schema.String(),
			domain.FieldNextID: schema.Ref(),
		}),
	}),
	New: func(def domain.Definition, g Graph) Card {
		return &Menu{Base: newBase(def, g)}
	},
	Default: func(displayName string) domain.Definition {
		def := baseDefinition(domain.CardTypeMenu, displayName)
		def["prompt"] = defaultMessage
		def[fieldOptions] = []any{
			map[string]any{"label": "Option 1", domain.FieldNextID: nil},
		}
		return def
	},
}

// Menu offers a list of options, each branching to its own card.
// next_id is the default branch taken when no option matches.
type Menu struct {
	Base
}

type menuFields struct {
	Prompt string `mapstructure:"prompt"`
}

func (c *Menu) fields() menuFields {
	var f menuFields
	c.decodeFields(&f)
	return f
}

// options returns the raw option list. Elements keep their position so that
// reference paths and issue fields index the same slot.
func (c *Menu) options() []any {
	switch t := c.def[fieldOptions].(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	}
	return nil
}

func (c *Menu) option(i int) (domain.Definition, bool) {
	opts := c.options()
	if i < 0 || i >= len(opts) {
		return nil, false
	}
	m, ok := opts[i].(map[string]any)
	return m, ok
}

func optionField(i int) string {
	return fmt.Sprintf("%s.%d.%s", fieldOptions, i, domain.FieldNextID)
}

func optionLabel(i int, label string) string {
	if isBlank(label) {
		return fmt.Sprintf("Option %d", i+1)
	}
	return "Option " + strconv.Quote(label)
}

func (c *Menu) References() []domain.Reference {
	refs := []domain.Reference{{
		Field:    domain.FieldNextID,
		Label:    "Default node",
		Target:   c.def.Ref(domain.FieldNextID),
		Required: true,
	}}
	for i := range c.options() {
		opt, ok := c.option(i)
		if !ok {
			continue
		}
		refs = append(refs, domain.Reference{
			Field:    optionField(i),
			Label:    optionLabel(i, opt.String("label")),
			Target:   opt.Ref(domain.FieldNextID),
			Required: true,
		})
	}
	return refs
}

func (c *Menu) SetReference(field, id string) error {
	if field == domain.FieldNextID {
		c.def.SetRef(field, id)
		return nil
	}
	rest, ok := strings.CutPrefix(field, fieldOptions+".")
	if !ok {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	idx, ok := strings.CutSuffix(rest, "."+domain.FieldNextID)
	if !ok {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	opt, ok := c.option(i)
	if !ok {
		return fmt.Errorf("%s: %w", field, domain.ErrUnknownReference)
	}
	opt.SetRef(domain.FieldNextID, id)
	return nil
}

func (c *Menu) Validate() []domain.Issue {
	return c.check(c.References(), func() []domain.Issue {
		var issues []domain.Issue
		f := c.fields()
		if isBlank(f.Prompt) {
			issues = append(issues, domain.EmptyField(c.def, "prompt", "Prompt"))
		}
		opts := c.options()
		if len(opts) == 0 {
			issues = append(issues, domain.InvalidField(c.def, fieldOptions, "Menu has no options."))
		}
		for i := range opts {
			opt, ok := c.option(i)
			if !ok {
				issues = append(issues, domain.InvalidField(c.def,
					fmt.Sprintf("%s.%d", fieldOptions, i),
					fmt.Sprintf("Option %d is not a record.", i+1)))
				continue
			}
			if isBlank(opt.String("label")) {
				issues = append(issues, domain.EmptyField(c.def,
					fmt.Sprintf("%s.%d.label", fieldOptions, i),
					fmt.Sprintf("Option %d label", i+1)))
			}
		}
		return issues
	})
}

func (c *Menu) ResolveOutgoing() []Card { return c.outgoing(c.References()) }

func (c *Menu) RewriteReference(oldID, newID string) bool {
	return rewrite(c, oldID, newID)
}

func (c *Menu) SearchText() string {
	values := []string{c.Type(), c.fields().Prompt}
	for _, opt := range c.def.Records(fieldOptions) {
		values = append(values, domain.Definition(opt).String("label"))
	}
	return c.searchText(values...)
}
