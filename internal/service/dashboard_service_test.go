package service

import (
	"context"
	"testing"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	modules := seedModules(t, store, 4)
	ach := NewAchievementService(store, 3)
	learning := NewLearningService(store, ach, true)
	dash := NewDashboardService(store, ach, learning)

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	dash.now = func() time.Time { return now }

	for i, ai := range []bool{true, false, true, false, true, false} {
		require.NoError(t, store.Analyses.Create(ctx, &model.Analysis{
			UserID:            "u1",
			ContentType:       model.ContentText,
			IsAIGenerated:     ai,
			OverallConfidence: 0.5,
			CreatedAt:         now.AddDate(0, 0, -(i % 2)),
		}))
	}
	_, err := learning.UpdateProgress(ctx, "u1", ProgressUpdate{ModuleID: modules[0].ID, Completed: boolPtr(true)})
	require.NoError(t, err)

	stats, err := dash.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 6, stats.TotalAnalyses)
	assert.EqualValues(t, 3, stats.AIDetected)
	assert.Equal(t, 1, stats.ModulesCompleted)
	assert.Equal(t, 4, stats.TotalModules)
	assert.Equal(t, 25, stats.OverallProgress)
	assert.Equal(t, 2, stats.StreakDays)
	assert.Len(t, stats.RecentAnalyses, 5)
	assert.Len(t, stats.Achievements, 1)

	_, err = dash.Stats(ctx, "")
	assert.ErrorIs(t, err, util.ErrAuthRequired)
}

func TestDashboardForNewUser(t *testing.T) {
	store := repository.NewMemoryStore()
	seedModules(t, store, 2)
	ach := NewAchievementService(store, 3)
	dash := NewDashboardService(store, ach, NewLearningService(store, ach, true))

	stats, err := dash.Stats(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAnalyses)
	assert.Zero(t, stats.StreakDays)
	assert.NotNil(t, stats.RecentAnalyses)
	assert.NotNil(t, stats.Achievements)
	assert.Equal(t, 2, stats.TotalModules)
}
