package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"coursechat-backend/internal/models"
)

// Ollama talks to an Ollama server's native API.
type Ollama struct {
	kind           models.ProviderKind
	defaultBaseURL string
	hotOnly        bool // list /api/ps (loaded models) instead of /api/tags
	httpClient     *http.Client
}

// NewOllama creates the adapter for a course-configured Ollama server.
func NewOllama(defaultBaseURL string, httpClient *http.Client) *Ollama {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{kind: models.ProviderOllama, defaultBaseURL: defaultBaseURL, httpClient: httpClient}
}

func (o *Ollama) Kind() models.ProviderKind {
	return o.kind
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Model      string        `json:"model"`
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type ollamaModelList struct {
	Models []struct {
		Name    string `json:"name"`
		Model   string `json:"model"`
		Details struct {
			ParameterSize string `json:"parameter_size"`
		} `json:"details"`
	} `json:"models"`
}

func (o *Ollama) baseURL(cfg models.ProviderConfig) (string, error) {
	base := firstNonEmpty(cfg.BaseURL, o.defaultBaseURL)
	if base == "" {
		return "", configErrorf("%s base URL is not set", o.kind)
	}
	return strings.TrimRight(base, "/"), nil
}

func (o *Ollama) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	base, err := o.baseURL(params.Config)
	if err != nil {
		return nil, err
	}

	msgs := make([]ollamaMessage, 0, len(params.Messages))
	for _, m := range params.Messages {
		msgs = append(msgs, ollamaMessage{Role: string(m.Role), Content: m.Content.Text("\n")})
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    params.Model.ID,
		Messages: msgs,
		Stream:   params.Stream,
		Options:  ollamaOptions{Temperature: params.Temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrStreamAborted
		}
		return nil, &ProviderError{Provider: o.kind, Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, o.httpError(resp)
	}

	if !params.Stream {
		defer resp.Body.Close()
		var out ollamaChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, &ProviderError{Provider: o.kind, Message: "invalid response body", Cause: err}
		}
		return &Result{Completion: models.NewChatCompletion("", out.Model, out.Message.Content, out.DoneReason)}, nil
	}

	// Streaming responses are newline-delimited JSON objects.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	done := false
	recv := func() (string, error) {
		for !done && scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				return "", &ProviderError{Provider: o.kind, Message: "invalid stream chunk", Cause: err}
			}
			if chunk.Error != "" {
				return "", &ProviderError{Provider: o.kind, Message: chunk.Error}
			}
			done = chunk.Done
			if chunk.Message.Content != "" {
				return chunk.Message.Content, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	closeFn := func() { _ = resp.Body.Close() }
	mapErr := func(err error) error {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return err
		}
		return &ProviderError{Provider: o.kind, Message: "stream read failed", Cause: err}
	}
	return &Result{Stream: pipeStream(ctx, recv, closeFn, mapErr)}, nil
}

func (o *Ollama) httpError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &ProviderError{Provider: o.kind, Status: resp.StatusCode, Message: msg}
}

func (o *Ollama) ListModels(ctx context.Context, cfg models.ProviderConfig) models.ProviderConfig {
	cfg.Provider = o.kind
	cfg.Error = ""
	base, err := o.baseURL(cfg)
	if err != nil {
		return failedListing(cfg, err)
	}
	path := "/api/tags"
	if o.hotOnly {
		path = "/api/ps"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return failedListing(cfg, fmt.Errorf("failed to build request: %w", err))
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return failedListing(cfg, &ProviderError{Provider: o.kind, Message: "model listing failed", Cause: err})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failedListing(cfg, o.httpError(resp))
	}

	var list ollamaModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return failedListing(cfg, &ProviderError{Provider: o.kind, Message: "invalid model list", Cause: err})
	}

	prevEnabled := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		prevEnabled[m.ID] = m.Enabled
	}
	out := make([]models.Model, 0, len(list.Models))
	for _, m := range list.Models {
		id := firstNonEmpty(m.Model, m.Name)
		model, known := LookupModel(o.kind, id)
		if !known {
			model = models.Model{ID: id, Name: id, TokenLimit: defaultTokenLimit, Enabled: true}
		}
		if size := m.Details.ParameterSize; size != "" {
			model.Name = fmt.Sprintf("%s (%s)", model.Name, size)
		}
		if enabled, ok := prevEnabled[id]; ok {
			model.Enabled = enabled
		}
		out = append(out, model)
	}
	cfg.Models = out
	return cfg
}
