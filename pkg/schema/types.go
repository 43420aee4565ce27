package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "ref").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string")
	}
	return nil
}

// RefType validates reference fields: a card id or null.
type RefType struct{}

func (t *RefType) Name() string { return "ref" }

func (t *RefType) Validate(value any) error {
	switch value.(type) {
	case nil, string:
		return nil
	default:
		return fmt.Errorf("expected card id or null")
	}
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int")
		}
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int")
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool")
	}
	return nil
}

// RecordsType validates a list of flat records, each checked against a schema.
type RecordsType struct {
	fields Schema
}

func (t *RecordsType) Name() string { return "[record]" }

func (t *RecordsType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected list of records")
	}

	for i := 0; i < rv.Len(); i++ {
		rec, ok := rv.Index(i).Interface().(map[string]any)
		if !ok {
			return fmt.Errorf("element %d: expected record", i)
		}
		for key, val := range rec {
			typ, known := t.fields[key]
			if !known {
				continue
			}
			if err := typ.Validate(val); err != nil {
				return fmt.Errorf("element %d: field %q: %w", i, key, err)
			}
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Ref creates a reference type validator.
func Ref() Type { return &RefType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Records creates a validator for a list of records described by fields.
func Records(fields Schema) Type { return &RecordsType{fields: fields} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}
