package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat-backend/internal/models"
)

func TestOllamaChatStreamNDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, float32(0.5), req.Options.Temperature)

		fmt.Fprintln(w, `{"model":"llama3.1:70b","message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3.1:70b","message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3.1:70b","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`)
	}))
	defer srv.Close()

	res, err := NewOllama("", srv.Client()).Chat(context.Background(), ChatParams{
		Model:       models.Model{ID: "llama3.1:70b"},
		Temperature: 0.5,
		Messages:    testMessages(),
		Stream:      true,
		Config:      models.ProviderConfig{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	var pieces []string
	for c := range res.Stream {
		require.NoError(t, c.Err)
		pieces = append(pieces, c.Text)
	}
	assert.Equal(t, []string{"Hel", "lo"}, pieces)
}

func TestOllamaChatBuffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"model":"qwen2.5:14b-instruct-fp16","message":{"role":"assistant","content":"done"},"done":true,"done_reason":"stop"}`)
	}))
	defer srv.Close()

	res, err := NewOllama(srv.URL, srv.Client()).Chat(context.Background(), ChatParams{
		Model:    models.Model{ID: "qwen2.5:14b-instruct-fp16"},
		Messages: testMessages(),
	})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Completion.Content())
}

func TestOllamaChatMissingBaseURL(t *testing.T) {
	_, err := NewOllama("", nil).Chat(context.Background(), ChatParams{Messages: testMessages()})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models":[
			{"name":"llama3.1:70b","model":"llama3.1:70b","details":{"parameter_size":"70.6B"}},
			{"name":"mistral:7b","model":"mistral:7b","details":{"parameter_size":"7B"}}
		]}`)
	}))
	defer srv.Close()

	cfg := NewOllama(srv.URL, srv.Client()).ListModels(context.Background(), models.ProviderConfig{
		Models: []models.Model{{ID: "mistral:7b", Enabled: false}},
	})
	assert.Empty(t, cfg.Error)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, "Llama 3.1 70b (70.6B)", cfg.Models[0].Name)
	assert.Equal(t, 128000, cfg.Models[0].TokenLimit)
	assert.Equal(t, "mistral:7b (7B)", cfg.Models[1].Name)
	assert.Equal(t, defaultTokenLimit, cfg.Models[1].TokenLimit)
	assert.False(t, cfg.Models[1].Enabled)
}

func TestOllamaListModelsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := NewOllama(url, nil).ListModels(context.Background(), models.ProviderConfig{})
	assert.NotEmpty(t, cfg.Error)
	assert.Nil(t, cfg.Models)
}

func TestNCSAHostedRoutes(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/ps":
			fmt.Fprint(w, `{"models":[{"name":"llama3.1:8b-instruct-fp16","model":"llama3.1:8b-instruct-fp16","details":{}}]}`)
		case "/v1/chat/completions":
			fmt.Fprint(w, `{"id":"x","model":"llama3.1:8b-instruct-fp16","choices":[{"index":0,"message":{"role":"assistant","content":"hosted"},"finish_reason":"stop"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewNCSAHosted(srv.URL, srv.Client())
	assert.Equal(t, models.ProviderNCSAHosted, a.Kind())

	cfg := a.ListModels(context.Background(), models.ProviderConfig{})
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, models.ProviderNCSAHosted, cfg.Provider)

	res, err := a.Chat(context.Background(), ChatParams{
		Model:    cfg.Models[0],
		Messages: testMessages(),
	})
	require.NoError(t, err)
	assert.Equal(t, "hosted", res.Completion.Content())
	assert.Equal(t, []string{"/api/ps", "/v1/chat/completions"}, paths)
}
