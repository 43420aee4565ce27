package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flow"
)

func supportFlow() *Builder {
	return New().
		Message("welcome", "Hi! What do you need?").Go("menu").
		Menu("menu", "Pick one").Option("Billing", "billing").Option("Bye", "bye").Go("bye").
		Webhook("billing", "POST", "https://example.com/billing").Go("bye").Error("bye").
		End("bye").Name("Goodbye").
		builder
}

func TestBuilder_SimpleFlow(t *testing.T) {
	defs, err := supportFlow().Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// Authoring order is kept.
	want := []string{"welcome", "menu", "billing", "bye"}
	if len(defs) != len(want) {
		t.Fatalf("Expected %d cards, got %d", len(want), len(defs))
	}
	for i, id := range want {
		if defs[i].ID() != id {
			t.Errorf("card %d: expected id %q, got %q", i, id, defs[i].ID())
		}
	}

	if defs[0].Type() != domain.CardTypeSendMessage {
		t.Errorf("Expected welcome type %q, got %q", domain.CardTypeSendMessage, defs[0].Type())
	}
	if defs[0].Name() != "welcome" {
		t.Errorf("Expected name to default to the id, got %q", defs[0].Name())
	}
	if defs[3].Name() != "Goodbye" {
		t.Errorf("Expected name 'Goodbye', got %q", defs[3].Name())
	}
	if got := defs[2].Ref("error_id"); got != "bye" {
		t.Errorf("Expected error_id 'bye', got %q", got)
	}

	// The built flow is complete: no issues at all.
	g := flow.Load(defs)
	if issues := g.CollectIssues(); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
	if out := g.Outgoing("menu"); len(out) != 2 {
		t.Errorf("Expected menu to reach 2 cards, got %d", len(out))
	}
}

func TestBuilder_DefaultsAndOverrides(t *testing.T) {
	defs, err := New().
		Media("photo", "Look", "").
		Add("photo", domain.CardTypeEnd).Set("context", "promo").
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("Expected Add on an existing id to reuse the card, got %d cards", len(defs))
	}

	photo := defs[0]
	if photo.Type() != domain.CardTypeSendMediaMessage {
		t.Errorf("Expected media type, got %q", photo.Type())
	}
	if photo["context"] != "promo" {
		t.Errorf("Expected context override, got %v", photo["context"])
	}
	if photo["media_url"] != "" {
		t.Errorf("Expected explicit empty media url, got %v", photo["media_url"])
	}
	if photo.Ref(domain.FieldNextID) != "" {
		t.Errorf("Expected next_id unset, got %q", photo.Ref(domain.FieldNextID))
	}

	issues := flow.Load(defs).CollectIssues()
	if domain.CountKind(issues, domain.IssueMissingReference) != 1 {
		t.Errorf("Expected a missing next node issue, got %v", issues)
	}
}

func TestBuilder_UnknownType(t *testing.T) {
	_, err := New().
		Add("carousel", "carousel").
		Add("", domain.CardTypeEnd).
		Build()
	if !errors.Is(err, domain.ErrUnknownCardType) {
		t.Fatalf("Expected ErrUnknownCardType, got %v", err)
	}
}
