package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const activeModulesKey = "milguard:modules:active"

// CachedModuleStore caches the active module list in redis. Redis is an
// optimisation only: every redis failure falls through to the wrapped store.
type CachedModuleStore struct {
	ModuleStore
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedModuleStore(inner ModuleStore, rdb *redis.Client, ttl time.Duration) *CachedModuleStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedModuleStore{ModuleStore: inner, rdb: rdb, ttl: ttl}
}

func (s *CachedModuleStore) ListActive(ctx context.Context) ([]model.LearningModule, error) {
	data, err := s.rdb.Get(ctx, activeModulesKey).Bytes()
	switch {
	case err == nil:
		var modules []model.LearningModule
		if jsonErr := json.Unmarshal(data, &modules); jsonErr == nil {
			return modules, nil
		}
		logger.Log.Warn("Discarding unreadable module cache entry")
	case !errors.Is(err, redis.Nil):
		logger.Log.Warn("Module cache read failed", zap.Error(err))
	}

	modules, err := s.ModuleStore.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(modules); err == nil {
		if err := s.rdb.Set(ctx, activeModulesKey, data, s.ttl).Err(); err != nil {
			logger.Log.Debug("Module cache write failed", zap.Error(err))
		}
	}
	return modules, nil
}

func (s *CachedModuleStore) Create(ctx context.Context, module *model.LearningModule) error {
	if err := s.ModuleStore.Create(ctx, module); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

func (s *CachedModuleStore) Invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, activeModulesKey).Err(); err != nil {
		logger.Log.Warn("Module cache invalidation failed", zap.Error(err))
	}
}
