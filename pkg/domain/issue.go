package domain

import "fmt"

// IssueKind classifies a reported defect.
type IssueKind string

const (
	IssueMissingReference    IssueKind = "missing_reference"
	IssueSelfReference       IssueKind = "self_reference"
	IssueDanglingReference   IssueKind = "dangling_reference"
	IssueEmptyField          IssueKind = "empty_field"
	IssueInvalidField        IssueKind = "invalid_field"
	IssueUnsupportedType     IssueKind = "unsupported_type"
	IssueMalformedDefinition IssueKind = "malformed_definition"
)

// Issue is a structural or content defect found during validation.
// Issues never block editing; they are collected and reported.
type Issue struct {
	CardID   string    `json:"card_id"`
	Message  string    `json:"message"`
	CardName string    `json:"card_name"`
	Kind     IssueKind `json:"kind"`
	Field    string    `json:"field,omitempty"`
}

func (i Issue) String() string {
	name := i.CardName
	if name == "" {
		name = i.CardID
	}
	return fmt.Sprintf("%s: %s", name, i.Message)
}

// MissingReference reports a required reference field that is unset.
func MissingReference(def Definition, ref Reference) Issue {
	return Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  ref.Label + " does not point to another node.",
		Kind:     IssueMissingReference,
		Field:    ref.Field,
	}
}

// SelfReference reports a reference field pointing at its own card.
func SelfReference(def Definition, ref Reference) Issue {
	return Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  ref.Label + " points to self.",
		Kind:     IssueSelfReference,
		Field:    ref.Field,
	}
}

// DanglingReference reports a reference to an id absent from the graph.
func DanglingReference(def Definition, ref Reference) Issue {
	return Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  ref.Label + " points to a non-existent node.",
		Kind:     IssueDanglingReference,
		Field:    ref.Field,
	}
}

// EmptyField reports a required content field with no value.
func EmptyField(def Definition, field, label string) Issue {
	return Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  label + " field is empty.",
		Kind:     IssueEmptyField,
		Field:    field,
	}
}

// InvalidField reports a content field whose value is malformed.
func InvalidField(def Definition, field, message string) Issue {
	return Issue{
		CardID:   def.ID(),
		CardName: def.Name(),
		Message:  message,
		Kind:     IssueInvalidField,
		Field:    field,
	}
}

// CountKind returns how many issues in list have the given kind.
func CountKind(list []Issue, kind IssueKind) int {
	n := 0
	for _, i := range list {
		if i.Kind == kind {
			n++
		}
	}
	return n
}
