package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"milguard_backend/internal/config"
	"milguard_backend/internal/detection"
	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x02, 0x00, 0x00, 0x00,
}

func newAnalysis(detector Detector) (*AnalysisService, *repository.Store) {
	store := repository.NewMemoryStore()
	ach := NewAchievementService(store, 3)
	return NewAnalysisService(store, detector, ach, nil, config.DetectionConfig{MaxTextChars: 100}), store
}

func TestAnalyzeTextPersistsAggregatedVerdict(t *testing.T) {
	ctx := context.Background()
	detector := &fakeDetector{outcome: outcomeOf(map[string]model.ProviderResult{
		"openai":  {Confidence: 0.9, IsAIGenerated: true},
		"gptZero": {Confidence: 0.3},
	})}
	svc, store := newAnalysis(detector)

	resp, err := svc.AnalyzeText(ctx, "u1", "  The quick brown fox.  ")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AnalysisID)
	assert.InDelta(t, 0.6, resp.Results.Overall.Confidence, 1e-9)
	assert.True(t, resp.Results.Overall.IsAIGenerated)
	assert.Empty(t, resp.Results.Overall.Note)
	assert.Equal(t, []model.AchievementType{model.AchievementFirstAnalysis}, achievementTypes(resp.NewAchievements))

	stored, err := store.Analyses.FindByID(ctx, resp.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "The quick brown fox.", stored.ContentText)
	assert.InDelta(t, 0.6, stored.OverallConfidence, 1e-9)
	assert.True(t, stored.IsAIGenerated)
	assert.Len(t, stored.Results.Data().Providers, 2)
}

func TestAnalyzeTextReportsPartialFailure(t *testing.T) {
	detector := &fakeDetector{outcome: outcomeOf(map[string]model.ProviderResult{
		"openai": {Confidence: 0.2},
	}, "gptZero")}
	svc, _ := newAnalysis(detector)

	resp, err := svc.AnalyzeText(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.False(t, resp.Results.Overall.IsAIGenerated)
	assert.Equal(t, "1 of 2 detection services responded; unavailable: gptZero", resp.Results.Overall.Note)
}

func TestAnalyzeTextNoVerdictPersistsNothing(t *testing.T) {
	ctx := context.Background()
	detector := &fakeDetector{err: detection.ErrNoVerdict}
	svc, store := newAnalysis(detector)

	_, err := svc.AnalyzeText(ctx, "u1", "hello")
	assert.ErrorIs(t, err, util.ErrNoVerdict)

	n, err := store.Analyses.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAnalyzeTextValidation(t *testing.T) {
	detector := &fakeDetector{}
	svc, _ := newAnalysis(detector)
	ctx := context.Background()

	_, err := svc.AnalyzeText(ctx, "", "hello")
	assert.ErrorIs(t, err, util.ErrAuthRequired)

	var verr *util.ValidationError
	_, err = svc.AnalyzeText(ctx, "u1", "   ")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AnalyzeText(ctx, "u1", strings.Repeat("a", 101))
	assert.ErrorAs(t, err, &verr)

	assert.Zero(t, detector.calls)
}

func TestAnalyzeFileChecksType(t *testing.T) {
	ctx := context.Background()
	detector := &fakeDetector{outcome: outcomeOf(map[string]model.ProviderResult{
		"aiOrNot": {Confidence: 0.85, IsAIGenerated: true},
	})}
	svc, store := newAnalysis(detector)

	var verr *util.ValidationError
	_, err := svc.AnalyzeFile(ctx, "u1", model.ContentImage, &Upload{FileName: "notes.txt", Size: 5, Data: []byte("hello")})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AnalyzeFile(ctx, "u1", model.ContentImage, nil)
	assert.ErrorAs(t, err, &verr)

	resp, err := svc.AnalyzeFile(ctx, "u1", model.ContentImage, &Upload{FileName: "../face.PNG", Size: int64(len(pngHeader)), Data: pngHeader})
	require.NoError(t, err)
	assert.InDelta(t, 0.85, resp.Results.Overall.Confidence, 1e-9)

	stored, err := store.Analyses.FindByID(ctx, resp.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, model.ContentImage, stored.ContentType)
	assert.Equal(t, "face.PNG", stored.FileName)
	assert.Equal(t, "image/png", stored.FileType)
}

func TestHistoryIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	detector := &fakeDetector{outcome: outcomeOf(map[string]model.ProviderResult{"openai": {Confidence: 0.75}})}
	svc, _ := newAnalysis(detector)

	resp, err := svc.AnalyzeText(ctx, "u1", "mine")
	require.NoError(t, err)

	view, err := svc.GetAnalysis(ctx, "u1", resp.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, detection.LevelHigh, view.Severity)

	_, err = svc.GetAnalysis(ctx, "u2", resp.AnalysisID)
	assert.ErrorIs(t, err, util.ErrNotFound)

	history, err := svc.ListHistory(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = svc.ListHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAchievementFailureDoesNotFailAnalysis(t *testing.T) {
	ctx := context.Background()
	detector := &fakeDetector{outcome: outcomeOf(map[string]model.ProviderResult{"openai": {Confidence: 0.1}})}
	svc, store := newAnalysis(detector)
	svc.Achievements.Achievements = failingAchievements{store.Achievements}

	resp, err := svc.AnalyzeText(ctx, "u1", "hello")
	require.NoError(t, err)
	assert.Empty(t, resp.NewAchievements)
	assert.NotEmpty(t, resp.AnalysisID)
}

type failingAchievements struct {
	repository.AchievementStore
}

func (failingAchievements) CreateIfAbsent(context.Context, *model.Achievement) (bool, error) {
	return false, errors.New("achievements table unavailable")
}
