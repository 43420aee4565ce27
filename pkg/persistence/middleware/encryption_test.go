package middleware_test

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/aretw0/cardflow/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretFlow(message string) []domain.Definition {
	return []domain.Definition{
		{"id": "welcome", "type": "send-message", "name": "Welcome", "message": message, "next_id": "bye"},
		{"id": "bye", "type": "end", "name": "Bye"},
	}
}

func mustMiddleware(t *testing.T, config middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := mustMiddleware(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	if err := secureStore.Save(ctx, "support", secretFlow("my-secret-sauce")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only holds the envelope.
	stored, err := underlyingStore.Load(ctx, "support")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored) != 1 || stored[0].ID() != "__encrypted__" {
		t.Fatalf("Expected a single envelope definition, got %v", stored)
	}
	if _, ok := stored[0]["message"]; ok {
		t.Fatal("Expected message to be hidden")
	}

	loaded, err := secureStore.Load(ctx, "support")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0]["message"] != "my-secret-sauce" {
		t.Errorf("Expected the original flow back, got %v", loaded)
	}
	if loaded[1].ID() != "bye" {
		t.Errorf("Expected card order to be kept, got %q second", loaded[1].ID())
	}

	ids, err := secureStore.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "support" {
		t.Errorf("Expected List to pass through, got %v (%v)", ids, err)
	}
	if err := secureStore.Delete(ctx, "support"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := secureStore.Load(ctx, "support"); !errors.Is(err, domain.ErrFlowNotFound) {
		t.Errorf("Expected ErrFlowNotFound after delete, got %v", err)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := mustMiddleware(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	if err := secureStoreOld.Save(ctx, "rotation", secretFlow("encrypted-with-old-key")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := mustMiddleware(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rotation")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded[0]["message"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	// Saving again re-encrypts with the new key.
	if err := secureStoreNew.Save(ctx, "rotation", secretFlow("encrypted-with-new-key")); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}
	if _, err := secureStoreOld.Load(ctx, "rotation"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RefusesPlainFlows(t *testing.T) {
	underlyingStore := memory.NewStoreWith(map[string][]domain.Definition{"plain": secretFlow("hi")})
	secureStore := mustMiddleware(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	_, err := secureStore.Load(context.Background(), "plain")
	if !errors.Is(err, middleware.ErrNotEncrypted) {
		t.Errorf("Expected ErrNotEncrypted, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if err == nil {
		t.Error("Expected an error for invalid key size")
	}
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.FlowStore) ports.FlowStore {
			order = append(order, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	if len(order) != 2 || order[0] != "inner" || order[1] != "outer" {
		t.Errorf("Expected inner to wrap first, got %v", order)
	}
}
