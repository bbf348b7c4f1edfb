package service

import (
	"context"
	"testing"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstAnalysisAwardedOnce(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAchievementService(store, 3)

	require.NoError(t, store.Analyses.Create(ctx, &model.Analysis{UserID: "u1", ContentType: model.ContentText}))
	awarded, err := svc.OnAnalysisCreated(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.AchievementType{model.AchievementFirstAnalysis}, achievementTypes(awarded))

	require.NoError(t, store.Analyses.Create(ctx, &model.Analysis{UserID: "u1", ContentType: model.ContentText}))
	awarded, err = svc.OnAnalysisCreated(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, awarded)

	list, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStreakAwardedAfterConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAchievementService(store, 3)

	for _, d := range []time.Time{day(2026, 4, 1), day(2026, 4, 2)} {
		require.NoError(t, store.Analyses.Create(ctx, &model.Analysis{UserID: "u1", ContentType: model.ContentText, CreatedAt: d.Add(9 * time.Hour)}))
	}
	awarded, err := svc.OnAnalysisCreated(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, achievementTypes(awarded), model.AchievementStreak)

	require.NoError(t, store.Analyses.Create(ctx, &model.Analysis{UserID: "u1", ContentType: model.ContentText, CreatedAt: day(2026, 4, 3).Add(time.Hour)}))
	awarded, err = svc.OnAnalysisCreated(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []model.AchievementType{model.AchievementStreak}, achievementTypes(awarded))
	assert.Equal(t, "3", awarded[0].SubjectID)
}

func TestModuleCompleteIsPerModule(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	modules := seedModules(t, store, 3)
	svc := NewAchievementService(store, 3)

	awarded, err := svc.OnModuleCompleted(ctx, "u1", &modules[0])
	require.NoError(t, err)
	assert.Equal(t, []model.AchievementType{model.AchievementModuleComplete}, achievementTypes(awarded))

	awarded, err = svc.OnModuleCompleted(ctx, "u1", &modules[0])
	require.NoError(t, err)
	assert.Empty(t, awarded)

	awarded, err = svc.OnModuleCompleted(ctx, "u1", &modules[1])
	require.NoError(t, err)
	assert.Len(t, awarded, 1)
}

func TestRunLengthAndCurrentStreak(t *testing.T) {
	days := []time.Time{day(2026, 4, 10), day(2026, 4, 9), day(2026, 4, 8), day(2026, 4, 5)}
	assert.Equal(t, 3, RunLength(days))
	assert.Equal(t, 0, RunLength(nil))

	assert.Equal(t, 3, CurrentStreak(days, day(2026, 4, 10).Add(20*time.Hour)))
	assert.Equal(t, 3, CurrentStreak(days, day(2026, 4, 11).Add(time.Hour)))
	assert.Equal(t, 0, CurrentStreak(days, day(2026, 4, 12).Add(time.Hour)))
}

func TestStreakThresholdDefaults(t *testing.T) {
	svc := NewAchievementService(repository.NewMemoryStore(), 0)
	assert.Equal(t, 3, svc.StreakThreshold())
	svc.SetStreakThreshold(7)
	assert.Equal(t, 7, svc.StreakThreshold())
}
