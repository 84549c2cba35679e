package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat-backend/internal/models"
)

func fullRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewOpenAI(nil))
	r.Register(NewAzure(AzureDefaults{}, nil))
	r.Register(NewAnthropic("", nil))
	r.Register(NewOllama("", nil))
	r.Register(NewNCSAHosted("", nil))
	r.Register(NewVLLM("", nil))
	r.Register(NewWebLLM())
	return r
}

func TestRegistryCoversEveryKind(t *testing.T) {
	r := fullRegistry()
	assert.Empty(t, r.Missing())
	for _, k := range models.AllProviderKinds() {
		a, err := r.Get(k)
		require.NoError(t, err)
		assert.Equal(t, k, a.Kind())
	}
}

func TestRegistryMissingKind(t *testing.T) {
	r := NewRegistry()
	r.Register(NewOpenAI(nil))

	_, err := r.Get(models.ProviderAnthropic)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, r.Missing(), models.ProviderAnthropic)
	assert.NotContains(t, r.Missing(), models.ProviderOpenAI)
	assert.Panics(t, func() { r.MustGet(models.ProviderWebLLM) })
}

func TestWebLLM(t *testing.T) {
	w := NewWebLLM()
	_, err := w.Chat(context.Background(), ChatParams{})
	assert.ErrorIs(t, err, ErrConfiguration)

	cfg := w.ListModels(context.Background(), models.ProviderConfig{Models: []models.Model{{ID: "phi-3_5-mini-q4f16_1-MLC", Enabled: false}}})
	require.Len(t, cfg.Models, len(Catalog(models.ProviderWebLLM)))
	for _, m := range cfg.Models {
		if m.ID == "phi-3_5-mini-q4f16_1-MLC" {
			assert.False(t, m.Enabled)
		}
	}
}

func TestCatalogIsACopy(t *testing.T) {
	c := Catalog(models.ProviderOpenAI)
	c[0].Enabled = false
	m, ok := LookupModel(models.ProviderOpenAI, c[0].ID)
	require.True(t, ok)
	assert.True(t, m.Enabled)

	_, ok = LookupModel(models.ProviderOpenAI, "nope")
	assert.False(t, ok)
}

func TestProviderErrorStatus(t *testing.T) {
	assert.Equal(t, 404, (&ProviderError{Status: 404}).HTTPStatus())
	assert.Equal(t, 502, (&ProviderError{Status: 0}).HTTPStatus())
	assert.Equal(t, 502, (&ProviderError{Status: 302}).HTTPStatus())
}

func TestPipeStreamCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})
	recv := func() (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	stream := pipeStream(ctx, recv, func() { close(closed) }, nil)
	cancel()
	<-closed
	for c := range stream {
		assert.ErrorIs(t, c.Err, ErrStreamAborted)
	}
}
