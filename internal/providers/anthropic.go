package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/prompt"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	// AnthropicMaxTokens caps generation length; it is unrelated to the
	// model's context window.
	AnthropicMaxTokens = 4096
)

// Anthropic talks to the Messages API through the official SDK.
type Anthropic struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates the adapter. An empty baseURL targets api.anthropic.com.
func NewAnthropic(baseURL string, httpClient *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Anthropic{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (a *Anthropic) Kind() models.ProviderKind {
	return models.ProviderAnthropic
}

type anthropicImageSource struct {
	URL string
}

type anthropicBlock struct {
	Type   string // "text" or "image"
	Text   string
	Source *anthropicImageSource
}

type anthropicMessage struct {
	Role    string
	Content []anthropicBlock
}

type anthropicErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// toAnthropicMessages moves the system turn into its own field, drops
// assistant turns ahead of the first user turn and merges consecutive turns
// of the same role. The API rejects both of the latter.
func toAnthropicMessages(msgs []prompt.ProviderMessage) (string, []anthropicMessage) {
	system, rest := splitSystem(msgs)
	out := make([]anthropicMessage, 0, len(rest))
	for _, m := range rest {
		if len(out) == 0 && m.Role == models.RoleAssistant {
			continue
		}
		var blocks []anthropicBlock
		if m.Content.IsParts() {
			for _, p := range m.Content.Parts() {
				switch {
				case p.Type == models.ContentTypeText:
					blocks = append(blocks, anthropicBlock{Type: "text", Text: p.Text})
				case p.IsImage() && p.ImageURL != nil:
					blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicImageSource{URL: p.ImageURL.URL}})
				}
			}
		} else {
			blocks = []anthropicBlock{{Type: "text", Text: m.Content.Text("")}}
		}
		if n := len(out); n > 0 && out[n-1].Role == string(m.Role) {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, anthropicMessage{Role: string(m.Role), Content: blocks})
	}
	return system, out
}

func (m anthropicMessage) param() anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		if b.Type == "image" && b.Source != nil {
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: b.Source.URL}))
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(b.Text))
	}
	if m.Role == string(models.RoleAssistant) {
		return anthropic.NewAssistantMessage(blocks...)
	}
	return anthropic.NewUserMessage(blocks...)
}

func (a *Anthropic) client(cfg models.ProviderConfig) anthropic.Client {
	baseURL := a.baseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL+"/"),
		option.WithHTTPClient(a.httpClient),
		option.WithMaxRetries(0),
	)
}

func (a *Anthropic) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	if params.Config.APIKey == "" {
		return nil, configErrorf("Anthropic API key is not set")
	}
	system, msgs := toAnthropicMessages(params.Messages)
	if system == "" {
		return nil, prompt.ErrMissingSystemMessage
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(params.Model.ID),
		MaxTokens:   AnthropicMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    make([]anthropic.MessageParam, 0, len(msgs)),
		Temperature: anthropic.Float(float64(params.Temperature)),
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, m.param())
	}
	client := a.client(params.Config)

	if !params.Stream {
		msg, err := client.Messages.New(ctx, req)
		if err != nil {
			return nil, wrapAnthropicError(err)
		}
		var text strings.Builder
		for _, b := range msg.Content {
			if b.Type == "text" {
				text.WriteString(b.Text)
			}
		}
		return &Result{Completion: models.NewChatCompletion(msg.ID, string(msg.Model), text.String(), string(msg.StopReason))}, nil
	}

	stream := client.Messages.NewStreaming(ctx, req)
	recv := func() (string, error) {
		for stream.Next() {
			ev := stream.Current()
			if ev.Type == "content_block_delta" && ev.Delta.Type == "text_delta" {
				return ev.Delta.Text, nil
			}
		}
		if err := stream.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	closeFn := func() { _ = stream.Close() }
	return &Result{Stream: pipeStream(ctx, recv, closeFn, wrapAnthropicError)}, nil
}

// wrapAnthropicError maps SDK errors onto ProviderError, keeping the
// upstream status and the message from the error body.
func wrapAnthropicError(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrStreamAborted
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: models.ProviderAnthropic,
			Status:   apiErr.StatusCode,
			Message:  anthropicErrorMessage(apiErr.RawJSON(), apiErr.Error()),
		}
	}
	// Error events inside a stream arrive as plain errors carrying the event JSON.
	msg := err.Error()
	if i := strings.Index(msg, "{"); i >= 0 {
		return &ProviderError{Provider: models.ProviderAnthropic, Message: anthropicErrorMessage(msg[i:], msg)}
	}
	return &ProviderError{Provider: models.ProviderAnthropic, Message: "request failed", Cause: err}
}

func anthropicErrorMessage(raw, fallback string) string {
	var body anthropicErrorBody
	if err := json.Unmarshal([]byte(raw), &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(fallback)
}

// ListModels returns the static catalog; the key is only checked for presence.
func (a *Anthropic) ListModels(_ context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = models.ProviderAnthropic
	cfg.Error = ""
	if cfg.APIKey == "" {
		return failedListing(cfg, configErrorf("Anthropic API key is not set"))
	}
	cfg.Models = staticListing(models.ProviderAnthropic, cfg.Models)
	return cfg
}
