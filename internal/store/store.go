package store

import (
	"context"
	"errors"

	"coursechat-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// CourseStore defines the reads and writes the chat pipeline needs from the
// course key-value store. Course CRUD lives elsewhere; Set* exist for seeding
// and admin tooling.
type CourseStore interface {
	GetCourseMetadata(ctx context.Context, courseName string) (*models.CourseMetadata, error)
	SetCourseMetadata(ctx context.Context, meta *models.CourseMetadata) error

	// GetProviderConfigs returns the stored per-provider settings. API keys
	// come back exactly as stored, possibly sealed.
	GetProviderConfigs(ctx context.Context, courseName string) (models.ProviderConfigs, error)
	SetProviderConfigs(ctx context.Context, courseName string, configs models.ProviderConfigs) error
}
