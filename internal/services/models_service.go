package services

import (
	"context"
	"log"

	"github.com/sourcegraph/conc"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/providers"
	"coursechat-backend/internal/store"
)

// maskedKey replaces API keys in listing responses.
const maskedKey = "***"

// ModelsDependencies holds everything ModelsService needs.
type ModelsDependencies struct {
	Store    store.CourseStore
	Registry *providers.Registry
	Resolver KeyResolver
	Defaults models.ProviderConfigs
}

// ModelsService builds the per-course provider registry shown to callers.
type ModelsService struct {
	store    store.CourseStore
	registry *providers.Registry
	settings providerSettings
}

// NewModelsService creates a new ModelsService.
func NewModelsService(deps ModelsDependencies) *ModelsService {
	return &ModelsService{
		store:    deps.Store,
		registry: deps.Registry,
		settings: providerSettings{defaults: deps.Defaults, resolver: deps.Resolver},
	}
}

// ListModels probes every enabled provider concurrently and waits for all
// of them. A failing provider only sets its own Error field; the call itself
// fails only when the course settings cannot be loaded.
func (s *ModelsService) ListModels(ctx context.Context, courseName string, configs models.ProviderConfigs) (models.ProviderConfigs, error) {
	course, err := loadCourse(ctx, s.store, courseName, nil, configs)
	if err != nil {
		log.Printf("ERROR [ModelsService] Failed to load settings for course %s: %v", courseName, err)
		return nil, err
	}

	kinds := models.AllProviderKinds()
	results := make([]*models.ProviderConfig, len(kinds))

	wg := conc.NewWaitGroup()
	for i, kind := range kinds {
		cfg, ok, err := s.settings.effective(kind, course)
		if !ok {
			continue
		}
		if err != nil {
			failed := cfg
			failed.Error = err.Error()
			failed.Models = nil
			results[i] = &failed
			continue
		}
		adapter, err := s.registry.Get(kind)
		if err != nil {
			failed := cfg
			failed.Error = err.Error()
			failed.Models = nil
			results[i] = &failed
			continue
		}
		wg.Go(func() {
			listed := adapter.ListModels(ctx, cfg)
			listed.Provider = kind
			listed.Enabled = true
			results[i] = &listed
		})
	}
	wg.Wait()

	out := make(models.ProviderConfigs, len(kinds))
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Error != "" {
			log.Printf("WARN [ModelsService] Provider %s unavailable for course %s: %s", res.Provider, courseName, res.Error)
		}
		for j := range res.Models {
			if course.meta.IsModelDisabled(res.Models[j].ID) {
				res.Models[j].Enabled = false
			}
		}
		if res.APIKey != "" {
			res.APIKey = maskedKey
		}
		out[res.Provider] = *res
	}
	return out, nil
}
