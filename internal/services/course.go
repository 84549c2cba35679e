package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/providers"
	"coursechat-backend/internal/store"
)

// KeyResolver turns a stored, possibly sealed, API key into plaintext.
type KeyResolver interface {
	Resolve(raw string) (string, error)
}

// courseSettings is the course state one request works against.
type courseSettings struct {
	meta    *models.CourseMetadata
	configs models.ProviderConfigs
}

// loadCourse prefers values sent with the request and falls back to the
// course store. A course with nothing stored gets empty settings.
func loadCourse(ctx context.Context, st store.CourseStore, courseName string, meta *models.CourseMetadata, configs models.ProviderConfigs) (courseSettings, error) {
	if meta == nil && st != nil && courseName != "" {
		stored, err := st.GetCourseMetadata(ctx, courseName)
		switch {
		case err == nil:
			meta = stored
		case errors.Is(err, store.ErrNotFound):
			log.Printf("[CourseSettings] No metadata stored for course %s", courseName)
		default:
			return courseSettings{}, fmt.Errorf("failed to load course metadata: %w", err)
		}
	}
	if meta == nil {
		meta = &models.CourseMetadata{CourseName: courseName}
	}

	if len(configs) == 0 && st != nil && courseName != "" {
		stored, err := st.GetProviderConfigs(ctx, courseName)
		switch {
		case err == nil:
			configs = stored
		case errors.Is(err, store.ErrNotFound):
		default:
			return courseSettings{}, fmt.Errorf("failed to load provider configs: %w", err)
		}
	}
	if configs == nil {
		configs = models.ProviderConfigs{}
	}
	return courseSettings{meta: meta, configs: configs}, nil
}

// providerSettings layers course provider configs over the server defaults.
type providerSettings struct {
	defaults models.ProviderConfigs
	resolver KeyResolver
}

// effective returns the config to send for kind with its key decrypted.
// ok is false when the provider is disabled by the course or configured
// nowhere. A key that fails to decrypt is a configuration error.
func (p providerSettings) effective(kind models.ProviderKind, course courseSettings) (cfg models.ProviderConfig, ok bool, err error) {
	def, hasDefault := p.defaults[kind]
	own, hasOwn := course.configs[kind]
	if hasOwn && !own.Enabled {
		return own, false, nil
	}
	if !hasOwn && !hasDefault {
		return models.ProviderConfig{Provider: kind}, false, nil
	}

	cfg = def
	cfg.Provider = kind
	cfg.Enabled = true
	cfg.Models = own.Models
	cfg.BaseURL = firstSet(own.BaseURL, def.BaseURL)
	cfg.AzureEndpoint = firstSet(own.AzureEndpoint, def.AzureEndpoint)
	cfg.AzureDeployment = firstSet(own.AzureDeployment, def.AzureDeployment)
	cfg.AzureAPIVersion = firstSet(own.AzureAPIVersion, def.AzureAPIVersion)

	raw := firstSet(own.APIKey, course.meta.ProviderAPIKeys[kind])
	key, err := p.resolve(raw)
	if err != nil {
		return cfg, true, fmt.Errorf("%w: %s API key could not be decrypted", providers.ErrConfiguration, kind)
	}
	cfg.APIKey = firstSet(key, def.APIKey)
	return cfg, true, nil
}

func (p providerSettings) resolve(raw string) (string, error) {
	if raw == "" || p.resolver == nil {
		return raw, nil
	}
	return p.resolver.Resolve(raw)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
