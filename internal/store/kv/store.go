// Package kv implements store.CourseStore on Redis.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/store"
)

// Compile-time check to ensure RedisStore implements store.CourseStore
var _ store.CourseStore = (*RedisStore)(nil)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func courseMetadataKey(courseName string) string {
	return fmt.Sprintf("course_metadata:%s", courseName)
}

func providerConfigsKey(courseName string) string {
	return fmt.Sprintf("llm_providers:%s", courseName)
}

// GetCourseMetadata returns store.ErrNotFound when the course has no record.
func (s *RedisStore) GetCourseMetadata(ctx context.Context, courseName string) (*models.CourseMetadata, error) {
	var meta models.CourseMetadata
	if err := s.getJSON(ctx, courseMetadataKey(courseName), &meta); err != nil {
		return nil, err
	}
	if meta.CourseName == "" {
		meta.CourseName = courseName
	}
	return &meta, nil
}

func (s *RedisStore) SetCourseMetadata(ctx context.Context, meta *models.CourseMetadata) error {
	if meta == nil || meta.CourseName == "" {
		return errors.New("course metadata requires a course name")
	}
	return s.setJSON(ctx, courseMetadataKey(meta.CourseName), meta)
}

// GetProviderConfigs returns store.ErrNotFound when nothing is stored. The
// Provider field of every entry is filled from its map key.
func (s *RedisStore) GetProviderConfigs(ctx context.Context, courseName string) (models.ProviderConfigs, error) {
	configs := models.ProviderConfigs{}
	if err := s.getJSON(ctx, providerConfigsKey(courseName), &configs); err != nil {
		return nil, err
	}
	for kind, cfg := range configs {
		cfg.Provider = kind
		configs[kind] = cfg
	}
	return configs, nil
}

func (s *RedisStore) SetProviderConfigs(ctx context.Context, courseName string, configs models.ProviderConfigs) error {
	if courseName == "" {
		return errors.New("provider configs require a course name")
	}
	return s.setJSON(ctx, providerConfigsKey(courseName), configs)
}

func (s *RedisStore) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		log.Printf("ERROR [RedisStore] Failed to read key %s: %v", key, err)
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("ERROR [RedisStore] Failed to decode key %s: %v", key, err)
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		log.Printf("ERROR [RedisStore] Failed to write key %s: %v", key, err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
