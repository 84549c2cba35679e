package providers

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/prompt"
)

// OpenAIOptions configures an OpenAI-compatible adapter.
type OpenAIOptions struct {
	Kind                 models.ProviderKind
	DefaultBaseURL       string // used when the course config has no baseUrl
	RequireAPIKey        bool
	IncludeUnknownModels bool // keep server-reported IDs the catalog does not know
	HTTPClient           *http.Client
}

// OpenAICompatible talks to any backend exposing the OpenAI REST surface:
// OpenAI itself, vLLM and the NCSA-hosted Ollama gateway.
type OpenAICompatible struct {
	opts OpenAIOptions
}

// NewOpenAICompatible creates an adapter; a nil HTTPClient uses http.DefaultClient.
func NewOpenAICompatible(opts OpenAIOptions) *OpenAICompatible {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &OpenAICompatible{opts: opts}
}

// NewOpenAI creates the adapter for api.openai.com.
func NewOpenAI(httpClient *http.Client) *OpenAICompatible {
	return NewOpenAICompatible(OpenAIOptions{
		Kind:          models.ProviderOpenAI,
		RequireAPIKey: true,
		HTTPClient:    httpClient,
	})
}

// NewVLLM creates the adapter for a self-hosted vLLM server.
func NewVLLM(defaultBaseURL string, httpClient *http.Client) *OpenAICompatible {
	return NewOpenAICompatible(OpenAIOptions{
		Kind:                 models.ProviderVLLM,
		DefaultBaseURL:       defaultBaseURL,
		IncludeUnknownModels: true,
		HTTPClient:           httpClient,
	})
}

func (a *OpenAICompatible) Kind() models.ProviderKind {
	return a.opts.Kind
}

func (a *OpenAICompatible) client(cfg models.ProviderConfig) (*openai.Client, error) {
	if a.opts.RequireAPIKey && cfg.APIKey == "" {
		return nil, configErrorf("%s API key is not set", a.opts.Kind)
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = a.opts.DefaultBaseURL
	}
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = a.opts.HTTPClient
	return openai.NewClientWithConfig(clientConfig), nil
}

func (a *OpenAICompatible) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	c, err := a.client(params.Config)
	if err != nil {
		return nil, err
	}
	return chatOpenAI(ctx, c, a.opts.Kind, params)
}

func (a *OpenAICompatible) ListModels(ctx context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = a.opts.Kind
	cfg.Error = ""
	c, err := a.client(cfg)
	if err != nil {
		return failedListing(cfg, err)
	}
	list, err := c.ListModels(ctx)
	if err != nil {
		return failedListing(cfg, wrapOpenAIError(a.opts.Kind, err))
	}
	reported := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		reported = append(reported, m.ID)
	}
	cfg.Models = mergeReported(a.opts.Kind, reported, a.opts.IncludeUnknownModels, cfg.Models)
	return cfg
}

// chatOpenAI sends one chat request through a go-openai client. Shared by
// every adapter that speaks the OpenAI wire format.
func chatOpenAI(ctx context.Context, c *openai.Client, kind models.ProviderKind, params ChatParams) (*Result, error) {
	// Temperature is omitempty in go-openai; a true zero would fall back to
	// the server default of 1.
	temperature := params.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model:       params.Model.ID,
		Messages:    toOpenAIMessages(params.Messages),
		Temperature: temperature,
		Stream:      params.Stream,
	}

	if !params.Stream {
		resp, err := c.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, wrapOpenAIError(kind, err)
		}
		if len(resp.Choices) == 0 {
			return nil, &ProviderError{Provider: kind, Message: "response contained no choices"}
		}
		choice := resp.Choices[0]
		return &Result{
			Completion: models.NewChatCompletion(resp.ID, resp.Model, choice.Message.Content, string(choice.FinishReason)),
		}, nil
	}

	stream, err := c.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, wrapOpenAIError(kind, err)
	}
	recv := func() (string, error) {
		resp, err := stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Delta.Content, nil
	}
	closeFn := func() { _ = stream.Close() }
	mapErr := func(err error) error { return wrapOpenAIError(kind, err) }
	return &Result{Stream: pipeStream(ctx, recv, closeFn, mapErr)}, nil
}

func toOpenAIMessages(msgs []prompt.ProviderMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		om := openai.ChatCompletionMessage{Role: string(m.Role)}
		if !m.Content.IsParts() {
			om.Content = m.Content.Text("")
			out = append(out, om)
			continue
		}
		for _, p := range m.Content.Parts() {
			switch {
			case p.Type == models.ContentTypeText:
				om.MultiContent = append(om.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			case p.IsImage() && p.ImageURL != nil:
				om.MultiContent = append(om.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL.URL},
				})
			}
		}
		out = append(out, om)
	}
	return out
}

func wrapOpenAIError(kind models.ProviderKind, err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrStreamAborted
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: kind, Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: kind, Status: reqErr.HTTPStatusCode, Message: "request failed", Cause: reqErr.Err}
	}
	return &ProviderError{Provider: kind, Message: "request failed", Cause: err}
}
