package cardflow_test

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	changed []string
	loaded  []string
}

func (r *recorder) hooks() domain.EditorHooks {
	return domain.EditorHooks{
		OnMarkChanged: func(_ context.Context, ev *domain.ChangeEvent) {
			r.changed = append(r.changed, ev.CardID)
		},
		OnLoadNode: func(_ context.Context, ev *domain.LoadNodeEvent) {
			r.loaded = append(r.loaded, ev.CardID)
		},
	}
}

func media(id string, next any) domain.Definition {
	return domain.Definition{
		"id":        id,
		"type":      domain.CardTypeSendMediaMessage,
		"name":      id,
		"message":   "hi",
		"media_url": "https://example.com/x.png",
		"next_id":   next,
	}
}

func TestEditor_OnDestinationPicked(t *testing.T) {
	rec := &recorder{}
	ctx := context.Background()
	ed := cardflow.Open([]domain.Definition{media("a", nil), media("b", "a")},
		cardflow.WithHooks(rec.hooks()), cardflow.WithFlowID("welcome"))

	issues, err := ed.OnDestinationPicked(ctx, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, []string{"a"}, rec.changed)
	assert.Equal(t, []string{"b"}, rec.loaded)

	issues, err = ed.OnDestinationPicked(ctx, "a", "a")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Next node points to self.", issues[0].Message)

	issues, err = ed.OnDestinationPicked(ctx, "a", "ghost")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueDanglingReference, issues[0].Kind)
	assert.Equal(t, []string{"b", "a"}, rec.loaded, "unresolved destinations are not loaded")

	_, err = ed.OnDestinationPicked(ctx, "missing", "a")
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestEditor_OnDestinationPickedSynthetic(t *testing.T) {
	rec := &recorder{}
	ed := cardflow.Open([]domain.Definition{media("a", nil)},
		cardflow.WithHooks(rec.hooks()),
		cardflow.WithGraphOptions(flow.WithResolver(func(id string) domain.Definition {
			if id == "hangup" {
				return domain.Definition{"type": domain.CardTypeEnd}
			}
			return nil
		})))

	issues, err := ed.OnDestinationPicked(context.Background(), "a", "hangup")
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, []string{"hangup"}, rec.loaded)
}

func TestEditor_OnFieldChange(t *testing.T) {
	rec := &recorder{}
	ctx := context.Background()
	ed := cardflow.Open([]domain.Definition{media("a", "a")}, cardflow.WithHooks(rec.hooks()))

	require.NoError(t, ed.OnFieldChange(ctx, "a", "media_url", ""))
	assert.Equal(t, []string{"a"}, rec.changed)

	assert.Error(t, ed.OnFieldChange(ctx, "a", "media_url", 3))
	assert.ErrorIs(t, ed.OnFieldChange(ctx, "a", "id", "z"), domain.ErrImmutableField)
	assert.Len(t, rec.changed, 1, "rejected edits are not marked")
}

func TestEditor_AddRemoveRename(t *testing.T) {
	rec := &recorder{}
	ctx := context.Background()
	ed := cardflow.Open([]domain.Definition{media("a", "b"), media("b", "a"), media("c", "b")},
		cardflow.WithHooks(rec.hooks()))

	added, err := ed.AddCard(ctx, domain.CardTypeSendMessage, "Thanks")
	require.NoError(t, err)
	assert.Equal(t, "Thanks", added.Name())
	assert.Equal(t, []string{added.ID()}, rec.loaded)

	_, err = ed.AddCard(ctx, "fax", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownCardType)

	assert.True(t, ed.RemoveCard(ctx, "b"))
	assert.False(t, ed.RemoveCard(ctx, "b"))
	assert.Equal(t, 2, domain.CountKind(ed.Issues(), domain.IssueDanglingReference))

	rec.changed = nil
	assert.Equal(t, 2, ed.RenameReference(ctx, "b", added.ID()))
	assert.ElementsMatch(t, []string{"a", "c"}, rec.changed)
	assert.Zero(t, domain.CountKind(ed.Issues(), domain.IssueDanglingReference))

	out, in := ed.Edges(added.ID())
	assert.Empty(t, out)
	assert.Len(t, in, 2)
}

func TestEditor_LoadCard(t *testing.T) {
	ed := cardflow.New()
	ctx := context.Background()

	c, err := ed.LoadCard(ctx, media("a", nil))
	require.NoError(t, err)
	assert.Equal(t, "a", c.ID())

	_, err = ed.LoadCard(ctx, media("a", nil))
	assert.ErrorIs(t, err, domain.ErrDuplicateCardID)
	assert.Equal(t, 1, ed.Graph().Len())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, cardflow.Version)
}
