// Package providers holds one adapter per LLM backend and the table that
// maps a provider kind to its adapter.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/prompt"
)

var (
	// ErrConfiguration marks a request that cannot be sent because of
	// missing or invalid provider settings. Never retried.
	ErrConfiguration = errors.New("provider configuration error")
	// ErrStreamAborted marks a stream the caller cancelled.
	ErrStreamAborted = errors.New("stream aborted by caller")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ProviderError is a failure reported by, or while talking to, a backend.
type ProviderError struct {
	Provider models.ProviderKind
	Status   int // upstream HTTP status, 0 when the request never got a response
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// HTTPStatus is the status to surface to the caller.
func (e *ProviderError) HTTPStatus() int {
	if e.Status >= 400 && e.Status < 600 {
		return e.Status
	}
	return http.StatusBadGateway
}

// ChatParams is everything an adapter needs to send one chat request.
// Messages is the normalized list; its first entry is the system turn when
// a system prompt was resolved.
type ChatParams struct {
	Model       models.Model
	Temperature float32
	Messages    []prompt.ProviderMessage
	Stream      bool
	Config      models.ProviderConfig // APIKey already decrypted
}

// Chunk is one piece of streamed output. A chunk with Err set is the last one.
type Chunk struct {
	Text string
	Err  error
}

// Result is either a stream or a buffered completion.
type Result struct {
	Stream     <-chan Chunk
	Completion *models.ChatCompletion
}

// IsStream reports whether the result streams.
func (r *Result) IsStream() bool {
	return r.Stream != nil
}

// Adapter is implemented by every backend.
type Adapter interface {
	Kind() models.ProviderKind
	Chat(ctx context.Context, params ChatParams) (*Result, error)
	// ListModels must not fail: probe errors are recorded in the returned
	// config's Error field and its model list is cleared.
	ListModels(ctx context.Context, cfg models.ProviderConfig) models.ProviderConfig
}

// splitSystem separates a leading system turn from the rest.
func splitSystem(msgs []prompt.ProviderMessage) (string, []prompt.ProviderMessage) {
	if len(msgs) > 0 && msgs[0].Role == models.RoleSystem {
		return msgs[0].Content.Text("\n"), msgs[1:]
	}
	return "", msgs
}

// failedListing records a probe failure on cfg.
func failedListing(cfg models.ProviderConfig, err error) models.ProviderConfig {
	cfg.Error = err.Error()
	cfg.Models = nil
	return cfg
}
