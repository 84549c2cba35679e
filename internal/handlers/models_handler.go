package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"coursechat-backend/internal/models"
	"coursechat-backend/pkg/httputil"
)

// ModelLister is the part of services.ModelsService the handler uses.
type ModelLister interface {
	ListModels(ctx context.Context, courseName string, configs models.ProviderConfigs) (models.ProviderConfigs, error)
}

// ModelsHandler serves the per-course provider registry.
type ModelsHandler struct {
	modelsService ModelLister
}

// NewModelsHandler creates a new ModelsHandler.
func NewModelsHandler(modelsService ModelLister) *ModelsHandler {
	return &ModelsHandler{modelsService: modelsService}
}

// HandleListModels returns every enabled provider's config, partial
// failures included.
// GET /v1/models?projectName=<course>
// POST /v1/models
func (h *ModelsHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	var req models.ListModelsRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	} else {
		req.CourseName = r.URL.Query().Get("projectName")
	}

	out, err := h.modelsService.ListModels(r.Context(), req.CourseName, req.ProviderConfigs)
	if err != nil {
		respondServiceError(w, "ModelsHandler", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}
