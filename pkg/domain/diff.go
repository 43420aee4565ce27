package domain

import (
	"reflect"
)

// FlowDiff represents the changes between two snapshots of a flow.
// It is designed to be serialized to JSON for partial updates on the client.
type FlowDiff struct {
	// FlowID is always present to identify the target.
	FlowID string `json:"flow_id"`

	// Added lists ids of cards present only in the new snapshot.
	Added []string `json:"added,omitempty"`

	// Removed lists ids of cards present only in the old snapshot.
	Removed []string `json:"removed,omitempty"`

	// Changed maps card ids to their field deltas.
	// For deletions, the key is present with a nil value.
	// Clients should merge these updates into their local copy.
	Changed map[string]map[string]any `json:"changed,omitempty"`
}

// DiffFlows calculates the difference between two ordered definition lists.
// If oldDefs is nil, every card of newDefs is reported as added (initial load).
// Returns nil when nothing changed.
func DiffFlows(flowID string, oldDefs, newDefs []Definition) *FlowDiff {
	diff := &FlowDiff{FlowID: flowID}

	oldByID := indexByID(oldDefs)
	newByID := indexByID(newDefs)

	// 1. Added & Changed (new order)
	for _, def := range newDefs {
		id := def.ID()
		old, exists := oldByID[id]
		if !exists {
			diff.Added = append(diff.Added, id)
			continue
		}
		if delta := diffFields(old, def); len(delta) > 0 {
			if diff.Changed == nil {
				diff.Changed = make(map[string]map[string]any)
			}
			diff.Changed[id] = delta
		}
	}

	// 2. Removed (old order)
	for _, def := range oldDefs {
		if _, exists := newByID[def.ID()]; !exists {
			diff.Removed = append(diff.Removed, def.ID())
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func indexByID(defs []Definition) map[string]Definition {
	idx := make(map[string]Definition, len(defs))
	for _, def := range defs {
		idx[def.ID()] = def
	}
	return idx
}

func diffFields(old, new Definition) map[string]any {
	delta := make(map[string]any)

	// Check for Added or Modified
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Check for Deletions
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *FlowDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
