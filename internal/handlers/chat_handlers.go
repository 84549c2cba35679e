package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"coursechat-backend/internal/auth"
	"coursechat-backend/internal/models"
	"coursechat-backend/internal/providers"
	"coursechat-backend/pkg/httputil"
)

// ChatRouter is the part of services.ChatService the handler uses.
type ChatRouter interface {
	Route(ctx context.Context, req *models.ChatRequest) (*providers.Result, error)
}

// ChatHandlers handles HTTP requests for chat completions.
type ChatHandlers struct {
	chatService ChatRouter
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatRouter) *ChatHandlers {
	return &ChatHandlers{chatService: chatService}
}

// HandleChat routes one conversation turn.
// POST /v1/chat
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Conversation.UserEmail == "" {
		if email, ok := auth.GetUserEmailFromContext(r.Context()); ok {
			req.Conversation.UserEmail = email
		}
	}

	res, err := h.chatService.Route(r.Context(), &req)
	if err != nil {
		respondServiceError(w, "ChatHandler", err)
		return
	}
	if !res.IsStream() {
		httputil.RespondJSON(w, http.StatusOK, res.Completion)
		return
	}
	h.writeStream(w, res.Stream)
}

// writeStream forwards chunks as plain text, flushing after each one. An
// error before the first byte still gets a JSON error body; after that the
// stream is simply cut.
func (h *ChatHandlers) writeStream(w http.ResponseWriter, stream <-chan providers.Chunk) {
	rc := http.NewResponseController(w)
	started := false
	for chunk := range stream {
		if chunk.Err != nil {
			if !started {
				respondServiceError(w, "ChatHandler", chunk.Err)
				return
			}
			if !errors.Is(chunk.Err, providers.ErrStreamAborted) {
				log.Printf("ERROR [ChatHandler] Stream failed after first byte: %v", chunk.Err)
			}
			return
		}
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk.Text)); err != nil {
			log.Printf("[ChatHandler] Client went away mid-stream: %v", err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Printf("[ChatHandler] Flush failed: %v", err)
			return
		}
	}
	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}
