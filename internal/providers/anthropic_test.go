package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/prompt"
)

type anthropicWireRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role string `json:"role"`
	} `json:"messages"`
	Temperature *float64 `json:"temperature"`
}

func TestAnthropicChatBuffered(t *testing.T) {
	var got anthropicWireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-latest","content":[{"type":"text","text":"Hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	a := NewAnthropic(srv.URL, srv.Client())
	res, err := a.Chat(context.Background(), ChatParams{
		Model:       models.Model{ID: "claude-3-5-sonnet-latest"},
		Temperature: 0.3,
		Messages:    testMessages(),
		Config:      models.ProviderConfig{APIKey: "sk-ant"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", res.Completion.Content())
	assert.Equal(t, "msg_1", res.Completion.ID)

	require.Len(t, got.System, 1)
	assert.Equal(t, "be brief", got.System[0].Text)
	assert.Equal(t, AnthropicMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 1e-6)
}

func TestAnthropicChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"type\":\"message\",\"role\":\"assistant\",\"content\":[]}}\n\n")
		for _, piece := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":%q}}\n\n", piece)
		}
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	res, err := NewAnthropic(srv.URL, srv.Client()).Chat(context.Background(), ChatParams{
		Model:    models.Model{ID: "claude-3-5-haiku-latest"},
		Messages: testMessages(),
		Stream:   true,
		Config:   models.ProviderConfig{APIKey: "sk-ant"},
	})
	require.NoError(t, err)
	text, err := Collect(res.Stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestAnthropicStreamErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"part\"}}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer srv.Close()

	res, err := NewAnthropic(srv.URL, srv.Client()).Chat(context.Background(), ChatParams{
		Messages: testMessages(),
		Stream:   true,
		Config:   models.ProviderConfig{APIKey: "sk-ant"},
	})
	require.NoError(t, err)
	text, err := Collect(res.Stream)
	assert.Equal(t, "part", text)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "Overloaded")
}

func TestAnthropicHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`)
	}))
	defer srv.Close()

	_, err := NewAnthropic(srv.URL, srv.Client()).Chat(context.Background(), ChatParams{
		Messages: testMessages(),
		Config:   models.ProviderConfig{APIKey: "sk-ant"},
	})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.HTTPStatus())
	assert.Contains(t, pe.Message, "max_tokens too large")
}

func TestAnthropicRequiresSystemAndKey(t *testing.T) {
	a := NewAnthropic("", nil)
	_, err := a.Chat(context.Background(), ChatParams{Messages: testMessages()})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = a.Chat(context.Background(), ChatParams{
		Messages: testMessages()[1:],
		Config:   models.ProviderConfig{APIKey: "sk-ant"},
	})
	assert.ErrorIs(t, err, prompt.ErrMissingSystemMessage)
}

func TestToAnthropicMessagesMergesRoles(t *testing.T) {
	system, msgs := toAnthropicMessages([]prompt.ProviderMessage{
		{Role: models.RoleSystem, Content: models.PlainText("sys")},
		{Role: models.RoleUser, Content: models.PlainText("one")},
		{Role: models.RoleUser, Content: models.Parts(models.TextPart("two"), models.ImagePart("https://img/b.png"))},
		{Role: models.RoleAssistant, Content: models.PlainText("three")},
	})
	assert.Equal(t, "sys", system)
	require.Len(t, msgs, 2)
	require.Len(t, msgs[0].Content, 3)
	assert.Equal(t, "image", msgs[0].Content[2].Type)
	assert.Equal(t, "https://img/b.png", msgs[0].Content[2].Source.URL)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestToAnthropicMessagesDropsLeadingAssistant(t *testing.T) {
	_, msgs := toAnthropicMessages([]prompt.ProviderMessage{
		{Role: models.RoleSystem, Content: models.PlainText("sys")},
		{Role: models.RoleAssistant, Content: models.PlainText("Welcome to CS101!")},
		{Role: models.RoleAssistant, Content: models.PlainText("Ask me anything.")},
		{Role: models.RoleUser, Content: models.PlainText("hi")},
		{Role: models.RoleAssistant, Content: models.PlainText("hello")},
		{Role: models.RoleUser, Content: models.PlainText("question")},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content[0].Text)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "user", msgs[2].Role)
}

func TestAnthropicListModelsStatic(t *testing.T) {
	a := NewAnthropic("", nil)
	cfg := a.ListModels(context.Background(), models.ProviderConfig{})
	assert.NotEmpty(t, cfg.Error)
	assert.Nil(t, cfg.Models)

	cfg = a.ListModels(context.Background(), models.ProviderConfig{APIKey: "sk-ant"})
	assert.Empty(t, cfg.Error)
	assert.Equal(t, Catalog(models.ProviderAnthropic), cfg.Models)
}
