package providers

import (
	"fmt"
	"log"

	"coursechat-backend/internal/models"
)

// Registry holds the mapping between provider kinds and their adapters.
type Registry struct {
	adapters map[models.ProviderKind]Adapter
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[models.ProviderKind]Adapter),
	}
}

// Register adds an adapter under its own kind.
func (r *Registry) Register(adapter Adapter) {
	kind := adapter.Kind()
	if _, exists := r.adapters[kind]; exists {
		log.Printf("WARN [ProviderRegistry] Provider '%s' is already registered. Overwriting.", kind)
	}
	r.adapters[kind] = adapter
	log.Printf("[ProviderRegistry] Registered adapter for provider: %s", kind)
}

// Get retrieves the adapter for a provider kind.
func (r *Registry) Get(kind models.ProviderKind) (Adapter, error) {
	adapter, exists := r.adapters[kind]
	if !exists {
		return nil, configErrorf("no adapter registered for provider: %s", kind)
	}
	return adapter, nil
}

// MustGet retrieves an adapter, panicking if not found.
func (r *Registry) MustGet(kind models.ProviderKind) Adapter {
	adapter, err := r.Get(kind)
	if err != nil {
		panic(fmt.Sprintf("FATAL [ProviderRegistry] %v", err))
	}
	return adapter
}

// Missing returns the provider kinds that have no adapter.
func (r *Registry) Missing() []models.ProviderKind {
	var missing []models.ProviderKind
	for _, k := range models.AllProviderKinds() {
		if _, ok := r.adapters[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
