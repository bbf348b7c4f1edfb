package repository

import (
	"context"
	"testing"
	"time"

	"milguard_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedModuleStoreFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore().Modules
	require.NoError(t, inner.Create(ctx, &model.LearningModule{Title: "AI Content Basics", Order: 1, IsActive: true}))

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer rdb.Close()

	cached := NewCachedModuleStore(inner, rdb, time.Minute)
	modules, err := cached.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "AI Content Basics", modules[0].Title)

	require.NoError(t, cached.Create(ctx, &model.LearningModule{Title: "Deepfake Detection", Order: 2, IsActive: true}))
	modules, err = cached.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, modules, 2)
}
