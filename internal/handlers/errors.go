package handlers

import (
	"errors"
	"log"
	"net/http"

	"coursechat-backend/internal/prompt"
	"coursechat-backend/internal/providers"
	"coursechat-backend/pkg/httputil"
)

// respondServiceError maps a pipeline error onto the error body. Aborted
// streams write nothing; the caller is already gone.
func respondServiceError(w http.ResponseWriter, component string, err error) {
	var pe *providers.ProviderError
	switch {
	case errors.Is(err, providers.ErrStreamAborted):
		log.Printf("[%s] Request aborted by caller", component)
	case errors.Is(err, providers.ErrConfiguration):
		httputil.RespondNamedError(w, http.StatusBadRequest, "ConfigurationError", err.Error())
	case errors.Is(err, prompt.ErrEmptyConversation):
		httputil.RespondNamedError(w, http.StatusBadRequest, "EmptyConversationError", err.Error())
	case errors.Is(err, prompt.ErrMissingSystemMessage):
		httputil.RespondNamedError(w, http.StatusBadRequest, "MissingSystemMessageError", err.Error())
	case errors.As(err, &pe):
		log.Printf("ERROR [%s] Upstream provider failure: %v", component, err)
		httputil.RespondNamedError(w, pe.HTTPStatus(), "UpstreamProviderError", string(pe.Provider)+": "+pe.Message)
	default:
		log.Printf("ERROR [%s] Unhandled error: %v", component, err)
		httputil.RespondNamedError(w, http.StatusInternalServerError, "InternalServerError", "Internal server error")
	}
}
