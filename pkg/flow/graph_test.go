package flow

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaCard(id string, next any) domain.Definition {
	return domain.Definition{
		"id":        id,
		"type":      domain.CardTypeSendMediaMessage,
		"name":      "Card " + id,
		"message":   "hi",
		"media_url": "https://example.com/cat.png",
		"next_id":   next,
	}
}

func ids(cards []card.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID())
	}
	return out
}

func TestLoad_RecoversFromMalformedDefinitions(t *testing.T) {
	g := Load([]domain.Definition{
		mediaCard("a", "b"),
		{"type": domain.CardTypeSendMessage, "name": "nameless"},
		mediaCard("b", nil),
		mediaCard("a", nil),
		{"id": "x", "type": "carrier-pigeon"},
	})

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"a", "b", "x"}, ids(g.Cards()))
	assert.IsType(t, &card.Unsupported{}, g.Lookup("x"))

	load := g.LoadIssues()
	require.Len(t, load, 2)
	assert.Equal(t, "Card #2 has no id.", load[0].Message)
	assert.Equal(t, `Duplicate card id "a".`, load[1].Message)

	issues := g.CollectIssues()
	assert.Equal(t, []domain.IssueKind{
		domain.IssueMalformedDefinition,
		domain.IssueMalformedDefinition,
		domain.IssueMissingReference,
		domain.IssueUnsupportedType,
	}, kinds(issues))
	assert.Equal(t, "b", issues[2].CardID)
}

func kinds(issues []domain.Issue) []domain.IssueKind {
	out := make([]domain.IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestScenario_RemoveTargetLeavesDanglingReference(t *testing.T) {
	g := Load([]domain.Definition{mediaCard("A", "B"), mediaCard("B", nil)})

	issues := g.CollectIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, "B", issues[0].CardID)
	assert.Equal(t, "Next node does not point to another node.", issues[0].Message)

	removed, ok := g.RemoveCard("B")
	require.True(t, ok)
	assert.Equal(t, "B", removed.ID())
	assert.Nil(t, g.Lookup("B"))
	assert.Equal(t, "B", g.Lookup("A").Definition().Ref("next_id"))

	issues = g.CollectIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, "A", issues[0].CardID)
	assert.Equal(t, "Next node points to a non-existent node.", issues[0].Message)

	_, ok = g.RemoveCard("B")
	assert.False(t, ok)
}

func TestScenario_SelfLoop(t *testing.T) {
	g := Load([]domain.Definition{mediaCard("A", "A")})

	issues := g.CollectIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, "Next node points to self.", issues[0].Message)
}

func TestScenario_EmptyMediaURL(t *testing.T) {
	a := mediaCard("A", "B")
	a["media_url"] = ""
	g := Load([]domain.Definition{a, mediaCard("B", "A")})

	issues := g.CollectIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, "Media URL field is empty.", issues[0].Message)
}

func TestRenameReference(t *testing.T) {
	g := Load([]domain.Definition{
		mediaCard("a", "old"),
		mediaCard("b", "c"),
		mediaCard("c", "old"),
	})
	before := g.Lookup("b").Definition().Clone()

	assert.Equal(t, 2, g.RenameReference("old", "new"))
	assert.Equal(t, "new", g.Lookup("a").Definition().Ref("next_id"))
	assert.Equal(t, "new", g.Lookup("c").Definition().Ref("next_id"))
	assert.True(t, before.Equal(g.Lookup("b").Definition()), "unrelated card untouched")

	assert.Equal(t, 0, g.RenameReference("old", "new"), "idempotent")
}

func TestAddCard(t *testing.T) {
	g := New()

	c, err := g.AddCard(mediaCard("a", nil))
	require.NoError(t, err)
	assert.Same(t, c, g.Lookup("a"))

	_, err = g.AddCard(mediaCard("a", nil))
	assert.ErrorIs(t, err, domain.ErrDuplicateCardID)

	_, err = g.AddCard(domain.Definition{"type": domain.CardTypeEnd})
	assert.ErrorIs(t, err, domain.ErrMissingCardID)
	assert.Equal(t, 1, g.Len())
}

func TestEdges(t *testing.T) {
	g := Load([]domain.Definition{
		mediaCard("a", "b"),
		mediaCard("b", "c"),
		mediaCard("c", "b"),
		{"id": "d", "type": domain.CardTypeEnd},
	})

	assert.Equal(t, []string{"b"}, ids(g.Outgoing("a")))
	assert.ElementsMatch(t, []string{"a", "c"}, ids(g.Incoming("b")))
	assert.Empty(t, g.Outgoing("zzz"))
	assert.NotNil(t, g.Outgoing("zzz"))

	g.RemoveCard("b")
	assert.ElementsMatch(t, []string{"a", "c"}, ids(g.Incoming("b")), "removed ids still list referrers")
	assert.Empty(t, g.Outgoing("a"))
}

func TestResolver(t *testing.T) {
	calls := 0
	g := Load([]domain.Definition{mediaCard("a", "__hangup__")},
		WithResolver(func(id string) domain.Definition {
			calls++
			if id == "__hangup__" {
				return domain.Definition{"type": domain.CardTypeEnd, "name": "Hang up"}
			}
			return nil
		}))

	assert.Empty(t, g.CollectIssues())
	out := g.Outgoing("a")
	require.Len(t, out, 1)
	assert.Equal(t, "__hangup__", out[0].ID())
	assert.Equal(t, "Hang up", out[0].Name())
	assert.Nil(t, g.Lookup("__hangup__"))
	assert.Nil(t, g.Resolve("unknown"))

	g.Resolve("__hangup__")
	assert.Equal(t, 2, calls, "synthetic cards are cached")
}

func TestSetField(t *testing.T) {
	g := Load([]domain.Definition{mediaCard("a", nil), {"id": "x", "type": "custom"}})

	require.NoError(t, g.SetField("a", "message", "updated"))
	assert.Equal(t, "updated", g.Lookup("a").Definition()["message"])

	require.NoError(t, g.SetField("a", "color", 42), "undeclared fields pass")
	require.NoError(t, g.SetField("x", "anything", true))

	err := g.SetField("a", "message", 7)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Key)

	assert.ErrorIs(t, g.SetField("a", "id", "b"), domain.ErrImmutableField)
	assert.ErrorIs(t, g.SetField("a", "type", "end"), domain.ErrImmutableField)
	assert.ErrorIs(t, g.SetField("nope", "message", "x"), domain.ErrCardNotFound)
}

func TestSetReference(t *testing.T) {
	g := Load([]domain.Definition{mediaCard("a", nil), mediaCard("b", nil)})

	require.NoError(t, g.SetReference("a", "next_id", "b"))
	assert.Equal(t, []string{"b"}, ids(g.Outgoing("a")))

	require.NoError(t, g.SetReference("a", "next_id", ""))
	assert.Nil(t, g.Lookup("a").Definition()["next_id"])

	assert.ErrorIs(t, g.SetReference("a", "error_id", "b"), domain.ErrUnknownReference)
	assert.ErrorIs(t, g.SetReference("zz", "next_id", "b"), domain.ErrCardNotFound)
}

func TestSnapshotIsDetached(t *testing.T) {
	g := Load([]domain.Definition{mediaCard("a", "b")})

	snap := g.Snapshot()
	snap[0]["message"] = "changed"
	assert.Equal(t, "hi", g.Definitions()[0]["message"])
}

func TestSearch(t *testing.T) {
	welcome := mediaCard("a", nil)
	welcome["message"] = "Welcome to the SHOP"
	g := Load([]domain.Definition{welcome, mediaCard("b", nil)})

	assert.Equal(t, []string{"a"}, ids(g.Search("shop")))
	assert.Len(t, g.Search("echo-media"), 2)
	assert.Len(t, g.Search(""), 2)
	assert.Empty(t, g.Search("nothing matches"))
}

func TestUnreachable(t *testing.T) {
	g := Load([]domain.Definition{
		mediaCard("start", "middle"),
		mediaCard("middle", "start"),
		mediaCard("island", "start"),
		{"id": "end", "type": domain.CardTypeEnd},
	})

	lost, err := g.Unreachable("start")
	require.NoError(t, err)
	assert.Equal(t, []string{"island", "end"}, ids(lost))

	_, err = g.Unreachable("ghost")
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestSetField_RoutesReferencePaths(t *testing.T) {
	g := Load([]domain.Definition{
		{"id": "m", "type": domain.CardTypeMenu, "prompt": "Pick", "next_id": nil,
			"options": []any{map[string]any{"label": "Yes", "next_id": nil}}},
		mediaCard("a", nil),
	})

	require.NoError(t, g.SetField("m", "options.0.next_id", "a"))
	def := g.Lookup("m").Definition()
	assert.Equal(t, "a", domain.Definition(def.Records("options")[0]).Ref("next_id"))
	assert.False(t, def.Has("options.0.next_id"), "no stray top-level key")
	assert.Equal(t, []string{"a"}, ids(g.Outgoing("m")))

	require.NoError(t, g.SetField("m", "next_id", "a"))
	assert.Equal(t, "a", def.Ref("next_id"))
	require.NoError(t, g.SetField("m", "next_id", nil))
	assert.Nil(t, def["next_id"])

	var verr *schema.ValidationError
	assert.ErrorAs(t, g.SetField("m", "options.0.next_id", 7), &verr)
	assert.ErrorIs(t, g.SetField("m", "options.3.next_id", "a"), domain.ErrUnknownReference)
	assert.ErrorIs(t, g.SetField("m", "options.0.label", "No"), domain.ErrUnknownReference)
	assert.False(t, def.Has("options.3.next_id"))
}

func TestLoad_NumericIDs(t *testing.T) {
	g := Load([]domain.Definition{
		{"id": 42, "type": domain.CardTypeSendMessage, "message": "Hi", "next_id": 43},
		{"id": 43, "type": domain.CardTypeEnd},
	})

	assert.Empty(t, g.LoadIssues())
	require.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"43"}, ids(g.Outgoing("42")))
	assert.Equal(t, []string{"42"}, ids(g.Incoming("43")))
}
