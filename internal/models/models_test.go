package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContentDecode(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"plain"}`), &m))
	assert.False(t, m.Content.IsParts())
	assert.Equal(t, "plain", m.Content.Text(" "))

	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[
		{"type":"text","text":"look"},
		{"type":"image_url","image_url":{"url":"https://img/a.png"}},
		{"type":"text","text":"here"}
	]}`), &m))
	require.True(t, m.Content.IsParts())
	assert.Len(t, m.Content.Parts(), 3)
	assert.Equal(t, "look here", m.Content.Text(" "))
	assert.True(t, m.Content.Parts()[1].IsImage())
}

func TestMessageContentRejectsBadParts(t *testing.T) {
	tests := map[string]string{
		"unknown type":  `[{"type":"audio"}]`,
		"image no url":  `[{"type":"image_url"}]`,
		"not a content": `42`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var c MessageContent
			assert.Error(t, json.Unmarshal([]byte(raw), &c))
		})
	}
}

func TestMessageContentEncodeKeepsVariant(t *testing.T) {
	raw, err := json.Marshal(PlainText("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `"hi"`, string(raw))

	raw, err = json.Marshal(Parts(TextPart("a"), ToolImagePart("https://img/t.png")))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"a"},{"type":"tool_image_url","image_url":{"url":"https://img/t.png"}}]`, string(raw))

	raw, err = json.Marshal(Parts())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestWithFinalTurnCopies(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{Role: RoleUser, Content: PlainText("one")},
		{Role: RoleUser, Content: PlainText("two")},
	}}
	out, err := conv.WithFinalTurn(func(m Message) Message {
		m.FinalPromptEngineeredMessage = "engineered"
		return m
	})
	require.NoError(t, err)
	assert.Equal(t, "engineered", out.Messages[1].FinalPromptEngineeredMessage)
	assert.Empty(t, conv.Messages[1].FinalPromptEngineeredMessage)
	assert.True(t, out.IsFinalTurn(1))
	assert.False(t, out.IsFinalTurn(0))

	_, err = Conversation{}.WithFinalTurn(func(m Message) Message { return m })
	assert.ErrorIs(t, err, ErrNoFinalTurn)
}

func TestParseProviderKind(t *testing.T) {
	for _, k := range AllProviderKinds() {
		got, err := ParseProviderKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseProviderKind("Cohere")
	assert.Error(t, err)
}

func TestCourseMetadataIsModelDisabled(t *testing.T) {
	var nilMeta *CourseMetadata
	assert.False(t, nilMeta.IsModelDisabled("gpt-4o"))
	meta := &CourseMetadata{DisabledModels: []string{"gpt-4"}}
	assert.True(t, meta.IsModelDisabled("gpt-4"))
	assert.False(t, meta.IsModelDisabled("gpt-4o"))
}
