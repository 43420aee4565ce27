package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore
// implementation adheres to the interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	flowID := "contract-" + time.Now().Format("20060102150405")

	sample := func() []domain.Definition {
		return []domain.Definition{
			{
				"id":        "welcome",
				"type":      domain.CardTypeSendMediaMessage,
				"name":      "Welcome",
				"message":   "Hello",
				"media_url": "https://example.com/hi.png",
				"next_id":   "menu",
			},
			{
				"id":      "menu",
				"type":    domain.CardTypeMenu,
				"name":    "Menu",
				"prompt":  "Pick",
				"next_id": nil,
				"options": []any{
					map[string]any{"label": "Again", "next_id": "welcome"},
				},
			},
			{"id": "bye", "type": domain.CardTypeEnd, "name": "Bye"},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flowID, sample()), "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 3)

		ids := []string{loaded[0].ID(), loaded[1].ID(), loaded[2].ID()}
		assert.Equal(t, []string{"welcome", "menu", "bye"}, ids, "order is preserved")
		assert.Equal(t, "https://example.com/hi.png", loaded[0].String("media_url"))
		assert.Equal(t, "menu", loaded[0].Ref("next_id"))
		assert.True(t, loaded[1].Has("next_id"), "null references survive")
		assert.Empty(t, loaded[1].Ref("next_id"))

		opts := loaded[1].Records("options")
		require.Len(t, opts, 1)
		assert.Equal(t, "Again", opts[0]["label"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		defs := sample()[:1]
		defs[0]["message"] = "Changed"
		require.NoError(t, store.Save(ctx, flowID, defs))

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "Changed", loaded[0].String("message"))
	})

	t.Run("Numbers", func(t *testing.T) {
		id := flowID + "-numbers"
		defer func() { _ = store.Delete(ctx, id) }()

		require.NoError(t, store.Save(ctx, id, []domain.Definition{
			{"id": "n", "type": domain.CardTypeEnd, "retries": 3},
		}))
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		// Backends differ in numeric representation; the value must survive.
		assert.Equal(t, "3", fmt.Sprint(normalizeNumber(loaded[0]["retries"])))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flowID, sample()))

		require.NoError(t, store.Delete(ctx, flowID), "Delete should not return error")

		_, err := store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		assert.NoError(t, store.Delete(ctx, flowID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := flowID + "-1"
		id2 := flowID + "-2"
		require.NoError(t, store.Save(ctx, id1, sample()))
		require.NoError(t, store.Save(ctx, id2, sample()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		flows, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, flows, id1)
		assert.Contains(t, flows, id2)
	})
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return int64(n)
	default:
		return v
	}
}
