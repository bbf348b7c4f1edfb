package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/pkg/logger"
	"milguard_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const defaultStreakDays = 3

// AchievementService mints one-time badges after analyses and module completions.
type AchievementService struct {
	Achievements repository.AchievementStore
	Analyses     repository.AnalysisStore
	Modules      repository.ModuleStore
	Progress     repository.ProgressStore

	streakDays atomic.Int64
	now        func() time.Time
}

func NewAchievementService(store *repository.Store, streakDays int) *AchievementService {
	s := &AchievementService{
		Achievements: store.Achievements,
		Analyses:     store.Analyses,
		Modules:      store.Modules,
		Progress:     store.Progress,
		now:          time.Now,
	}
	s.SetStreakThreshold(streakDays)
	return s
}

// SetStreakThreshold changes how many consecutive days earn the streak badge.
func (s *AchievementService) SetStreakThreshold(days int) {
	if days <= 0 {
		days = defaultStreakDays
	}
	s.streakDays.Store(int64(days))
}

func (s *AchievementService) StreakThreshold() int {
	return int(s.streakDays.Load())
}

func (s *AchievementService) ListForUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	achievements, err := s.Achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if achievements == nil {
		achievements = []model.Achievement{}
	}
	return achievements, nil
}

// OnAnalysisCreated checks the first-analysis and streak badges.
func (s *AchievementService) OnAnalysisCreated(ctx context.Context, userID string) ([]model.Achievement, error) {
	var awarded []model.Achievement

	// first analysis
	count, err := s.Analyses.CountByUser(ctx, userID)
	if err != nil {
		return awarded, err
	}
	if count >= 1 {
		a, err := s.award(ctx, model.Achievement{
			UserID:      userID,
			Type:        model.AchievementFirstAnalysis,
			Title:       "First Analysis",
			Description: "Completed your first content analysis",
		})
		if err != nil {
			return awarded, err
		}
		awarded = appendIf(awarded, a)
	}

	// consecutive-day streak
	days, err := s.Analyses.ActivityDays(ctx, userID)
	if err != nil {
		return awarded, err
	}
	threshold := s.StreakThreshold()
	if RunLength(days) >= threshold {
		a, err := s.award(ctx, model.Achievement{
			UserID:      userID,
			Type:        model.AchievementStreak,
			SubjectID:   strconv.Itoa(threshold),
			Title:       fmt.Sprintf("%d-Day Streak", threshold),
			Description: fmt.Sprintf("Analyzed content on %d consecutive days", threshold),
		})
		if err != nil {
			return awarded, err
		}
		awarded = appendIf(awarded, a)
	}
	return awarded, nil
}

// OnModuleCompleted awards the module badge and, once every active module
// is done, the curriculum badge.
func (s *AchievementService) OnModuleCompleted(ctx context.Context, userID string, module *model.LearningModule) ([]model.Achievement, error) {
	var awarded []model.Achievement

	a, err := s.award(ctx, model.Achievement{
		UserID:      userID,
		Type:        model.AchievementModuleComplete,
		SubjectID:   module.ID,
		Title:       "Module Complete: " + module.Title,
		Description: fmt.Sprintf("Finished the %q learning module", module.Title),
	})
	if err != nil {
		return awarded, err
	}
	awarded = appendIf(awarded, a)

	// whole curriculum
	modules, err := s.Modules.ListActive(ctx)
	if err != nil {
		return awarded, err
	}
	rows, err := s.Progress.ListByUser(ctx, userID)
	if err != nil {
		return awarded, err
	}
	if len(modules) == 0 || CompletedActive(modules, rows) < len(modules) {
		return awarded, nil
	}

	a, err = s.award(ctx, model.Achievement{
		UserID:      userID,
		Type:        model.AchievementCurriculumComplete,
		Title:       "Media Literacy Graduate",
		Description: "Completed every learning module",
	})
	if err != nil {
		return awarded, err
	}
	return appendIf(awarded, a), nil
}

// award inserts a unless it already exists; it returns nil when nothing was minted.
func (s *AchievementService) award(ctx context.Context, a model.Achievement) (*model.Achievement, error) {
	a.EarnedAt = s.now().UTC()
	created, err := s.Achievements.CreateIfAbsent(ctx, &a)
	if err != nil || !created {
		return nil, err
	}
	monitoring.AchievementsAwarded.WithLabelValues(string(a.Type)).Inc()
	logger.Log.Info("Achievement awarded",
		zap.String("user_id", a.UserID),
		zap.String("type", string(a.Type)),
		zap.String("subject", a.SubjectID))
	return &a, nil
}

func appendIf(list []model.Achievement, a *model.Achievement) []model.Achievement {
	if a == nil {
		return list
	}
	return append(list, *a)
}

// RunLength counts consecutive days ending at days[0]. days must be distinct
// UTC midnights, newest first.
func RunLength(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	run := 1
	for i := 1; i < len(days); i++ {
		if !days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			break
		}
		run++
	}
	return run
}

// CurrentStreak is the run that is still alive: it must end today or yesterday (UTC).
func CurrentStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	if days[0].Before(today.AddDate(0, 0, -1)) {
		return 0
	}
	return RunLength(days)
}
