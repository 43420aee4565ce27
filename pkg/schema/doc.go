// Package schema describes the typed fields of a card definition.
//
// Each card type declares a Schema mapping field names to types. The editor
// core uses it to check a value coming from the editor surface before it is
// written into a definition: the surface is responsible for translating a
// widget's value into the right Go type, the schema catches the cases where
// it did not.
//
// Basic usage:
//
//	fields := schema.Schema{
//	    "message":   schema.String(),
//	    "media_url": schema.String(),
//	    "next_id":   schema.Ref(),
//	}
//
//	if err := schema.ValidateField(fields, "message", 42); err != nil {
//	    // field "message": expected string (got int)
//	}
//
// Fields absent from the schema are accepted as-is, so type-specific
// extensions and presentation-only keys survive edits.
package schema
