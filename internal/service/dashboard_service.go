package service

import (
	"context"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/util"

	"golang.org/x/sync/errgroup"
)

const recentAnalysesOnDashboard = 5

type DashboardStats struct {
	TotalAnalyses    int64               `json:"totalAnalyses"`
	AIDetected       int64               `json:"aiDetected"`
	ModulesCompleted int                 `json:"modulesCompleted"`
	TotalModules     int                 `json:"totalModules"`
	StreakDays       int                 `json:"streakDays"`
	OverallProgress  int                 `json:"overallProgress"`
	RecentAnalyses   []AnalysisView      `json:"recentAnalyses"`
	Achievements     []model.Achievement `json:"achievements"`
}

type DashboardService struct {
	Analyses     repository.AnalysisStore
	Achievements *AchievementService
	Learning     *LearningService

	now func() time.Time
}

func NewDashboardService(store *repository.Store, achievements *AchievementService, learning *LearningService) *DashboardService {
	return &DashboardService{
		Analyses:     store.Analyses,
		Achievements: achievements,
		Learning:     learning,
		now:          time.Now,
	}
}

// Stats gathers the dashboard figures concurrently; the first failure wins.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}

	stats := &DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	// analysis counts
	g.Go(func() (err error) {
		stats.TotalAnalyses, err = s.Analyses.CountByUser(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.AIDetected, err = s.Analyses.CountAIGeneratedByUser(ctx, userID)
		return err
	})
	// current streak
	g.Go(func() error {
		days, err := s.Analyses.ActivityDays(ctx, userID)
		if err != nil {
			return err
		}
		stats.StreakDays = CurrentStreak(days, s.now())
		return nil
	})
	// recent history
	g.Go(func() error {
		recent, err := s.Analyses.ListByUser(ctx, userID, recentAnalysesOnDashboard)
		if err != nil {
			return err
		}
		stats.RecentAnalyses = make([]AnalysisView, 0, len(recent))
		for _, a := range recent {
			stats.RecentAnalyses = append(stats.RecentAnalyses, NewAnalysisView(a))
		}
		return nil
	})
	// earned badges
	g.Go(func() (err error) {
		stats.Achievements, err = s.Achievements.ListForUser(ctx, userID)
		return err
	})
	// curriculum progress
	g.Go(func() error {
		overview, err := s.Learning.Overview(ctx, userID)
		if err != nil {
			return err
		}
		stats.ModulesCompleted = overview.CompletedModules
		stats.TotalModules = overview.TotalModules
		stats.OverallProgress = overview.Percentage
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
