package providers

import (
	"context"
	"net/http"
	"strings"

	"coursechat-backend/internal/models"
)

// NCSAHosted is a shared Ollama server. Chat goes through its
// OpenAI-compatible /v1 surface; listing shows only the loaded models.
type NCSAHosted struct {
	chat   *OpenAICompatible
	lister *Ollama
}

// NewNCSAHosted creates the adapter. serverURL is the Ollama root URL.
func NewNCSAHosted(serverURL string, httpClient *http.Client) *NCSAHosted {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	root := strings.TrimRight(serverURL, "/")
	return &NCSAHosted{
		chat: NewOpenAICompatible(OpenAIOptions{
			Kind:           models.ProviderNCSAHosted,
			DefaultBaseURL: openAISurface(root),
			HTTPClient:     httpClient,
		}),
		lister: &Ollama{
			kind:           models.ProviderNCSAHosted,
			defaultBaseURL: root,
			hotOnly:        true,
			httpClient:     httpClient,
		},
	}
}

func openAISurface(root string) string {
	if root == "" {
		return ""
	}
	return root + "/v1"
}

func (n *NCSAHosted) Kind() models.ProviderKind {
	return models.ProviderNCSAHosted
}

func (n *NCSAHosted) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	if params.Config.BaseURL != "" {
		params.Config.BaseURL = openAISurface(strings.TrimRight(params.Config.BaseURL, "/"))
	}
	return n.chat.Chat(ctx, params)
}

func (n *NCSAHosted) ListModels(ctx context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	return n.lister.ListModels(ctx, cfg)
}
