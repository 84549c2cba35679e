package providers

import (
	"context"

	"coursechat-backend/internal/models"
)

// WebLLM models run inside the browser; the server only publishes the list.
type WebLLM struct{}

// NewWebLLM creates the static WebLLM adapter.
func NewWebLLM() *WebLLM {
	return &WebLLM{}
}

func (WebLLM) Kind() models.ProviderKind {
	return models.ProviderWebLLM
}

func (WebLLM) Chat(context.Context, ChatParams) (*Result, error) {
	return nil, configErrorf("WebLLM models run in the browser and cannot be served")
}

func (WebLLM) ListModels(_ context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = models.ProviderWebLLM
	cfg.Error = ""
	cfg.Models = staticListing(models.ProviderWebLLM, cfg.Models)
	return cfg
}
