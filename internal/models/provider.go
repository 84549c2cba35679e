package models

import "fmt"

// ProviderKind is the closed set of LLM backends.
type ProviderKind string

const (
	ProviderOpenAI     ProviderKind = "OpenAI"
	ProviderAzure      ProviderKind = "Azure"
	ProviderAnthropic  ProviderKind = "Anthropic"
	ProviderOllama     ProviderKind = "Ollama"
	ProviderNCSAHosted ProviderKind = "NCSAHosted"
	ProviderVLLM       ProviderKind = "VLLM"
	ProviderWebLLM     ProviderKind = "WebLLM"
)

// AllProviderKinds lists every provider kind in display order.
func AllProviderKinds() []ProviderKind {
	return []ProviderKind{
		ProviderOpenAI,
		ProviderAzure,
		ProviderAnthropic,
		ProviderOllama,
		ProviderNCSAHosted,
		ProviderVLLM,
		ProviderWebLLM,
	}
}

// ParseProviderKind validates a provider name.
func ParseProviderKind(s string) (ProviderKind, error) {
	for _, k := range AllProviderKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Model is one entry of a provider's catalog.
type Model struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TokenLimit        int    `json:"tokenLimit"`
	Enabled           bool   `json:"enabled"`
	CitationSensitive bool   `json:"citationSensitive,omitempty"`
}

// ProviderConfig is built fresh per request; Error is set instead of
// failing when the provider could not be probed.
type ProviderConfig struct {
	Provider        ProviderKind `json:"provider"`
	Enabled         bool         `json:"enabled"`
	APIKey          string       `json:"apiKey,omitempty"`
	BaseURL         string       `json:"baseUrl,omitempty"`
	AzureEndpoint   string       `json:"AzureEndpoint,omitempty"`
	AzureDeployment string       `json:"AzureDeployment,omitempty"`
	AzureAPIVersion string       `json:"AzureApiVersion,omitempty"`
	Error           string       `json:"error,omitempty"`
	Models          []Model      `json:"models,omitempty"`
}

// FindModel returns the model with the given id.
func (p *ProviderConfig) FindModel(id string) (Model, bool) {
	for _, m := range p.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ProviderConfigs maps a provider kind to its configuration.
type ProviderConfigs map[ProviderKind]ProviderConfig

// CourseMetadata is the subset of course settings the chat pipeline reads.
type CourseMetadata struct {
	CourseName      string                  `json:"course_name,omitempty"`
	SystemPrompt    string                  `json:"system_prompt,omitempty"`
	DisabledModels  []string                `json:"disabled_models,omitempty"`
	ProviderAPIKeys map[ProviderKind]string `json:"provider_api_keys,omitempty"`
}

// IsModelDisabled reports whether the course has turned a model off.
func (m *CourseMetadata) IsModelDisabled(id string) bool {
	if m == nil {
		return false
	}
	for _, d := range m.DisabledModels {
		if d == id {
			return true
		}
	}
	return false
}
