package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"

	"coursechat-backend/internal/models"
)

// DefaultAzureAPIVersion is sent when neither the course nor the server sets one.
const DefaultAzureAPIVersion = "2024-02-01"

// AzureDefaults are the server-level Azure settings a course may override.
type AzureDefaults struct {
	Endpoint   string
	Deployment string
	APIVersion string
}

// Azure talks to an Azure OpenAI deployment.
type Azure struct {
	defaults   AzureDefaults
	httpClient *http.Client
}

// NewAzure creates the Azure OpenAI adapter.
func NewAzure(defaults AzureDefaults, httpClient *http.Client) *Azure {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if defaults.APIVersion == "" {
		defaults.APIVersion = DefaultAzureAPIVersion
	}
	return &Azure{defaults: defaults, httpClient: httpClient}
}

func (a *Azure) Kind() models.ProviderKind {
	return models.ProviderAzure
}

// settings resolves endpoint, deployment and version, course values first.
func (a *Azure) settings(cfg models.ProviderConfig) (endpoint, deployment, version string, err error) {
	endpoint = firstNonEmpty(cfg.AzureEndpoint, cfg.BaseURL, a.defaults.Endpoint)
	deployment = firstNonEmpty(cfg.AzureDeployment, a.defaults.Deployment)
	version = firstNonEmpty(cfg.AzureAPIVersion, a.defaults.APIVersion)
	switch {
	case cfg.APIKey == "":
		err = configErrorf("Azure API key is not set")
	case endpoint == "":
		err = configErrorf("Azure endpoint is not set")
	case deployment == "":
		err = configErrorf("Azure deployment is not set")
	}
	return strings.TrimRight(endpoint, "/"), deployment, version, err
}

func (a *Azure) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	endpoint, deployment, version, err := a.settings(params.Config)
	if err != nil {
		return nil, err
	}
	clientConfig := openai.DefaultAzureConfig(params.Config.APIKey, endpoint)
	clientConfig.APIVersion = version
	clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
	clientConfig.HTTPClient = a.httpClient
	return chatOpenAI(ctx, openai.NewClientWithConfig(clientConfig), models.ProviderAzure, params)
}

type azureModelList struct {
	Data []struct {
		ID           string `json:"id"`
		Capabilities struct {
			ChatCompletion bool `json:"chat_completion"`
		} `json:"capabilities"`
	} `json:"data"`
}

func (a *Azure) ListModels(ctx context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = models.ProviderAzure
	cfg.Error = ""
	endpoint, _, version, err := a.settings(cfg)
	if err != nil {
		return failedListing(cfg, err)
	}

	u := endpoint + "/openai/models?api-version=" + url.QueryEscape(version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failedListing(cfg, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("api-key", cfg.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return failedListing(cfg, &ProviderError{Provider: models.ProviderAzure, Message: "model listing failed", Cause: err})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return failedListing(cfg, &ProviderError{Provider: models.ProviderAzure, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))})
	}

	var list azureModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return failedListing(cfg, &ProviderError{Provider: models.ProviderAzure, Message: "invalid model list", Cause: err})
	}
	reported := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.Capabilities.ChatCompletion {
			reported = append(reported, m.ID)
		}
	}
	cfg.Models = mergeReported(models.ProviderAzure, reported, false, cfg.Models)
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
