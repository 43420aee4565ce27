package registry

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FirstRegistrationWins(t *testing.T) {
	r := New()
	first := card.Descriptor{
		Type:  "custom",
		Label: "First",
		New: func(def domain.Definition, g card.Graph) card.Card {
			return card.NewUnsupported(def, g)
		},
	}
	second := first
	second.Label = "Second"

	require.NoError(t, r.Register(first))
	err := r.Register(second)
	assert.ErrorIs(t, err, domain.ErrDuplicateCardType)
	assert.Equal(t, "First", r.Label("custom"))
	assert.Equal(t, []string{"custom"}, r.Types())
}

func TestRegistry_RejectsIncompleteDescriptor(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Register(card.Descriptor{Type: "x"}), domain.ErrUnknownCardType)
	assert.ErrorIs(t, r.Register(card.Descriptor{}), domain.ErrUnknownCardType)
	assert.Empty(t, r.Types())
}

func TestRegistry_Create(t *testing.T) {
	r := New()
	require.NoError(t, RegisterBuiltins(r))

	c, err := r.Create(domain.Definition{"id": "a", "type": domain.CardTypeSendMessage}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", c.ID())
	assert.IsType(t, &card.SendMessage{}, c)

	_, err = r.Create(domain.Definition{"id": "b", "type": "nope"}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownCardType)
}

func TestRegistry_CreateDefault(t *testing.T) {
	r := New()
	require.NoError(t, RegisterBuiltins(r))

	def, err := r.CreateDefault(domain.CardTypeSendMediaMessage, "Welcome")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", def.Name())
	assert.Equal(t, domain.CardTypeSendMediaMessage, def.Type())
	assert.NotEmpty(t, def.ID())
	assert.Empty(t, def.Ref(domain.FieldNextID))

	_, err = r.CreateDefault("nope", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownCardType)
}

func TestRegistry_BuiltinsTwiceFails(t *testing.T) {
	r := New()
	require.NoError(t, RegisterBuiltins(r))
	assert.ErrorIs(t, RegisterBuiltins(r), domain.ErrDuplicateCardType)
}

func TestDefault(t *testing.T) {
	r := Default()
	assert.Same(t, r, Default())
	assert.Equal(t, []string{
		domain.CardTypeSendMessage,
		domain.CardTypeSendMediaMessage,
		domain.CardTypeMenu,
		domain.CardTypeWebhook,
		domain.CardTypeEnd,
	}, r.Types())
	assert.Equal(t, "Twilio: Send Media Message", r.Label(domain.CardTypeSendMediaMessage))
	assert.Equal(t, "unknown", r.Label("unknown"))
	assert.Contains(t, r.Fields(domain.CardTypeSendMediaMessage), "media_url")
	assert.Nil(t, r.Fields("unknown"))
}
