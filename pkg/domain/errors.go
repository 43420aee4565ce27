package domain

import "errors"

// ErrUnknownCardType is returned when no behavior is registered for a card type.
// Callers substitute a placeholder card instead of aborting the load.
var ErrUnknownCardType = errors.New("unknown card type")

// ErrDuplicateCardType is returned when a card type is registered twice.
// The first registration stays in effect.
var ErrDuplicateCardType = errors.New("card type already registered")

// ErrMissingCardID is returned when a definition carries no id.
var ErrMissingCardID = errors.New("card definition missing id")

// ErrDuplicateCardID is returned when a card id is already present in the flow.
var ErrDuplicateCardID = errors.New("duplicate card id")

// ErrCardNotFound is returned when an edit targets a card absent from the flow.
var ErrCardNotFound = errors.New("card not found")

// ErrImmutableField is returned when an edit targets the id or type field.
var ErrImmutableField = errors.New("field is immutable")

// ErrUnknownReference is returned when a card has no reference field with the given path.
var ErrUnknownReference = errors.New("unknown reference field")

// ErrFlowNotFound is returned when a flow ID cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrInvalidFlowID is returned when a flow ID is empty or unsafe as a storage key.
var ErrInvalidFlowID = errors.New("invalid flow id")

// ErrMalformedFlow is returned when an edit targets a flow holding definitions
// that could not be loaded. Saving it would drop them.
var ErrMalformedFlow = errors.New("flow has malformed card definitions")
