package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema is a map of field names to their expected types.
// Example: {"message": String(), "next_id": Ref()}
type Schema map[string]Type

// ValidateField checks a single value destined for field.
// Fields the schema does not declare are accepted.
func ValidateField(schema Schema, field string, value any) error {
	typ, ok := schema[field]
	if !ok {
		return nil
	}
	if err := typ.Validate(value); err != nil {
		return &ValidationError{Key: field, Reason: err.Error(), Value: value}
	}
	return nil
}

// Validate checks every declared field present in data.
// Absent fields are not an error here: emptiness is a card issue, not a type error.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	var errs []error

	for _, field := range schema.Fields() {
		value, exists := data[field]
		if !exists {
			continue
		}
		if err := ValidateField(schema, field, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Fields returns the declared field names in sorted order.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new schema holding the fields of s overlaid with other.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the schema as a map of field names to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}

	return json.Marshal(raw)
}
