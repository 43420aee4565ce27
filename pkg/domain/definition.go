package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Field keys shared by every card definition.
const (
	FieldID     = "id"
	FieldType   = "type"
	FieldName   = "name"
	FieldNextID = "next_id"
)

// Definition is the persisted, plain-data representation of a card.
// It is a flat record: the common fields (id, type, name, next_id) plus
// whatever type-specific fields the card type declares. Fields the core does
// not know about are carried through untouched.
type Definition map[string]any

// ID returns the card id, or "" when missing.
func (d Definition) ID() string { return d.String(FieldID) }

// Type returns the card type discriminant, or "" when missing.
func (d Definition) Type() string { return d.String(FieldType) }

// Name returns the display label.
func (d Definition) Name() string { return d.String(FieldName) }

// String returns the string value stored under key. Integers (as decoded
// from unquoted YAML scalars) are formatted in decimal, floats in their
// shortest form. Missing keys, nil values and other kinds read as "".
func (d Definition) String(key string) string {
	if d == nil {
		return ""
	}
	switch v := d[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Ref returns the id held by a reference field.
// A missing key, a null value and the empty string all mean "no reference".
func (d Definition) Ref(key string) string {
	return d.String(key)
}

// SetRef points a reference field at id. An empty id stores null.
func (d Definition) SetRef(key, id string) {
	if id == "" {
		d[key] = nil
		return
	}
	d[key] = id
}

// Has reports whether key is present, even with a null value.
func (d Definition) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Clone returns a deep copy of the definition.
// Nested lists and records (e.g. menu options) are copied as well.
func (d Definition) Clone() Definition {
	if d == nil {
		return nil
	}
	out := make(Definition, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether two definitions hold the same fields and values.
func (d Definition) Equal(other Definition) bool {
	return reflect.DeepEqual(map[string]any(d), map[string]any(other))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Definition:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []map[string]any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// Records normalizes a list-valued field (such as menu options) into a slice
// of records. Elements that are not records are skipped.
func (d Definition) Records(key string) []map[string]any {
	var out []map[string]any
	switch t := d[key].(type) {
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	case []map[string]any:
		out = append(out, t...)
	}
	return out
}

// Reference describes one reference field of a card.
type Reference struct {
	// Field is the path of the field inside the definition,
	// e.g. "next_id" or "options.1.next_id".
	Field string `json:"field"`
	// Label names the field in issue messages, e.g. "Next node".
	Label string `json:"label"`
	// Target is the referenced card id, empty when unset.
	Target string `json:"target,omitempty"`
	// Required references report an issue when unset.
	Required bool `json:"required"`
}

// IsSet reports whether the reference points anywhere.
func (r Reference) IsSet() bool { return r.Target != "" }

func (r Reference) String() string {
	if r.Target == "" {
		return fmt.Sprintf("%s -> (none)", r.Field)
	}
	return fmt.Sprintf("%s -> %s", r.Field, r.Target)
}
