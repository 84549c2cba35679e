package providers

import "coursechat-backend/internal/models"

// defaultTokenLimit is used for models a server reports but the catalog
// does not know.
const defaultTokenLimit = 8192

var openAIModels = []models.Model{
	{ID: "gpt-4o", Name: "GPT-4o", TokenLimit: 128000, Enabled: true},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", TokenLimit: 128000, Enabled: true},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", TokenLimit: 128000, Enabled: true},
	{ID: "gpt-4", Name: "GPT-4", TokenLimit: 8192, Enabled: true},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5", TokenLimit: 16385, Enabled: true},
}

var anthropicModels = []models.Model{
	{ID: "claude-3-5-sonnet-latest", Name: "Claude 3.5 Sonnet", TokenLimit: 200000, Enabled: true},
	{ID: "claude-3-5-haiku-latest", Name: "Claude 3.5 Haiku", TokenLimit: 200000, Enabled: true},
	{ID: "claude-3-opus-latest", Name: "Claude 3 Opus", TokenLimit: 200000, Enabled: true},
}

var ollamaModels = []models.Model{
	{ID: "llama3.1:70b", Name: "Llama 3.1 70b", TokenLimit: 128000, Enabled: true, CitationSensitive: true},
	{ID: "llama3.1:8b-instruct-fp16", Name: "Llama 3.1 8b", TokenLimit: 128000, Enabled: true, CitationSensitive: true},
	{ID: "qwen2.5:14b-instruct-fp16", Name: "Qwen 2.5 14b", TokenLimit: 32768, Enabled: true},
	{ID: "deepseek-r1:14b", Name: "DeepSeek R1 14b", TokenLimit: 128000, Enabled: true},
}

var vllmModels = []models.Model{
	{ID: "meta-llama/Llama-3.1-8B-Instruct", Name: "Llama 3.1 8B (vLLM)", TokenLimit: 128000, Enabled: true, CitationSensitive: true},
	{ID: "Qwen/Qwen2.5-7B-Instruct", Name: "Qwen 2.5 7B (vLLM)", TokenLimit: 32768, Enabled: true},
}

var webLLMModels = []models.Model{
	{ID: "Llama-3.1-8B-Instruct-q4f32_1-MLC", Name: "Llama 3.1 8B (browser)", TokenLimit: 4096, Enabled: true, CitationSensitive: true},
	{ID: "phi-3_5-mini-q4f16_1-MLC", Name: "Phi 3.5 mini (browser)", TokenLimit: 4096, Enabled: true},
}

// Catalog returns a copy of the static model table for a provider kind.
func Catalog(kind models.ProviderKind) []models.Model {
	var src []models.Model
	switch kind {
	case models.ProviderOpenAI, models.ProviderAzure:
		src = openAIModels
	case models.ProviderAnthropic:
		src = anthropicModels
	case models.ProviderOllama, models.ProviderNCSAHosted:
		src = ollamaModels
	case models.ProviderVLLM:
		src = vllmModels
	case models.ProviderWebLLM:
		src = webLLMModels
	}
	out := make([]models.Model, len(src))
	copy(out, src)
	return out
}

// LookupModel finds catalog metadata for a model id.
func LookupModel(kind models.ProviderKind, id string) (models.Model, bool) {
	for _, m := range Catalog(kind) {
		if m.ID == id {
			return m, true
		}
	}
	return models.Model{}, false
}

// mergeReported builds the model list for a provider from the IDs its
// server reported. Known IDs take catalog metadata; unknown IDs are kept
// only when includeUnknown is set, enabled by default. Enabled flags of
// previous survive so course-level choices are preserved.
func mergeReported(kind models.ProviderKind, reported []string, includeUnknown bool, previous []models.Model) []models.Model {
	prevEnabled := make(map[string]bool, len(previous))
	for _, m := range previous {
		prevEnabled[m.ID] = m.Enabled
	}

	out := make([]models.Model, 0, len(reported))
	seen := make(map[string]struct{}, len(reported))
	for _, id := range reported {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		m, known := LookupModel(kind, id)
		if !known {
			if !includeUnknown {
				continue
			}
			m = models.Model{ID: id, Name: id, TokenLimit: defaultTokenLimit, Enabled: true}
		}
		if enabled, ok := prevEnabled[id]; ok {
			m.Enabled = enabled
		}
		out = append(out, m)
	}
	return out
}

// staticListing returns the catalog with previous enabled flags applied.
func staticListing(kind models.ProviderKind, previous []models.Model) []models.Model {
	ids := make([]string, 0)
	for _, m := range Catalog(kind) {
		ids = append(ids, m.ID)
	}
	return mergeReported(kind, ids, false, previous)
}
