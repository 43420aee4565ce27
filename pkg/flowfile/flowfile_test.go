package flowfile

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {
    "id": "a",
    "type": "send-media-message",
    "name": "Welcome",
    "message": "Hi",
    "media_url": "https://example.com/a.png",
    "next_id": "b",
    "x_canvas": {"left": 120, "top": 48},
    "retries": 12345678901234567
  },
  {
    "id": "b",
    "type": "menu",
    "prompt": "Pick one",
    "next_id": null,
    "options": [{"label": "Yes", "next_id": "a"}]
  }
]`

func TestJSONRoundTripPreservesFields(t *testing.T) {
	defs, err := Unmarshal([]byte(sample), FormatJSON)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, json.Number("12345678901234567"), defs[0]["retries"])
	assert.True(t, defs[1].Has("next_id"))
	assert.Equal(t, "a", domain.Definition(defs[1].Records("options")[0]).Ref("next_id"))

	out, err := Marshal(FormatJSON, defs)
	require.NoError(t, err)
	assert.JSONEq(t, sample, string(out))
}

func TestYAMLRoundTrip(t *testing.T) {
	defs, err := Unmarshal([]byte(sample), FormatJSON)
	require.NoError(t, err)

	data, err := Marshal(FormatYAML, defs)
	require.NoError(t, err)
	assert.Contains(t, string(data), "retries: 12345678901234567")

	back, err := Unmarshal(data, FormatYAML)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "Welcome", back[0].Name())
	assert.Nil(t, back[1]["next_id"])
	assert.Equal(t, "b", back[0].Ref("next_id"))
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	defs := []domain.Definition{{"id": "a", "type": "end", "name": "Bye"}}

	for _, name := range []string{"flow.json", "flow.yaml", "flow.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, defs))
		got, err := Read(path)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Bye", got[0].Name())
	}

	assert.ErrorIs(t, Write(filepath.Join(dir, "flow.txt"), defs), ErrUnknownFormat)
	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestEmptyYAML(t *testing.T) {
	defs, err := Unmarshal(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestYAMLNumericIDs(t *testing.T) {
	src := "- {id: 42, type: send-message, message: Hi, next_id: 43}\n- {id: 43, type: end}\n"

	defs, err := Unmarshal([]byte(src), FormatYAML)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "42", defs[0].ID())
	assert.Equal(t, "43", defs[0].Ref("next_id"))
	assert.Equal(t, "43", defs[1].ID())

	fromJSON, err := Unmarshal([]byte(`[{"id": 42, "next_id": 43}, {"id": 43}]`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, fromJSON[0].ID(), defs[0].ID())
	assert.Equal(t, fromJSON[0].Ref("next_id"), defs[0].Ref("next_id"))
}

func TestJSONKeepsURLsUnescaped(t *testing.T) {
	defs := []domain.Definition{
		{"id": "a", "type": "send-media-message", "media_url": "https://x/?a=1&b=2<c>"},
	}
	out, err := Marshal(FormatJSON, defs)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"https://x/?a=1&b=2<c>"`)

	back, err := Unmarshal(out, FormatJSON)
	require.NoError(t, err)
	again, err := Marshal(FormatJSON, back)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}
