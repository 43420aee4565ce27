package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMarkChanged EventType = "mark_changed"
	EventLoadNode    EventType = "load_node"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
}

// ChangeEvent hints that a card was modified (dirty-state tracking).
type ChangeEvent struct {
	EventBase
	CardID string `json:"card_id"`
	// Field is the edited field, empty for structural changes (add/remove/rename).
	Field string `json:"field,omitempty"`
}

// LoadNodeEvent asks the editor surface to bring a card into view.
type LoadNodeEvent struct {
	EventBase
	CardID     string     `json:"card_id"`
	Definition Definition `json:"definition"`
}

// EditorHooks are the advisory signals the core emits towards the editor surface.
// Both are optional.
type EditorHooks struct {
	OnMarkChanged func(context.Context, *ChangeEvent)
	OnLoadNode    func(context.Context, *LoadNodeEvent)
}

// Chain returns hooks that call h first and then next.
func (h EditorHooks) Chain(next EditorHooks) EditorHooks {
	return EditorHooks{
		OnMarkChanged: func(ctx context.Context, e *ChangeEvent) {
			if h.OnMarkChanged != nil {
				h.OnMarkChanged(ctx, e)
			}
			if next.OnMarkChanged != nil {
				next.OnMarkChanged(ctx, e)
			}
		},
		OnLoadNode: func(ctx context.Context, e *LoadNodeEvent) {
			if h.OnLoadNode != nil {
				h.OnLoadNode(ctx, e)
			}
			if next.OnLoadNode != nil {
				next.OnLoadNode(ctx, e)
			}
		},
	}
}
