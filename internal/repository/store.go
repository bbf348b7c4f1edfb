package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/util"

	"gorm.io/gorm"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)
}

type AnalysisStore interface {
	Create(ctx context.Context, analysis *model.Analysis) error
	FindByID(ctx context.Context, id string) (*model.Analysis, error)
	// ListByUser returns the newest analyses first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Analysis, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountAIGeneratedByUser(ctx context.Context, userID string) (int64, error)
	// ActivityDays returns the distinct UTC days with at least one analysis,
	// newest first, each truncated to midnight.
	ActivityDays(ctx context.Context, userID string) ([]time.Time, error)
}

type ModuleStore interface {
	// ListActive returns active modules ordered by Order.
	ListActive(ctx context.Context) ([]model.LearningModule, error)
	FindByID(ctx context.Context, id string) (*model.LearningModule, error)
	Create(ctx context.Context, module *model.LearningModule) error
	Count(ctx context.Context) (int64, error)
}

type ProgressStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error)
	// Upsert atomically creates or merges the single row for (userID, moduleID).
	// wasCompleted reports the row's state before the merge.
	Upsert(ctx context.Context, userID, moduleID string, patch model.ProgressPatch, now time.Time) (row *model.UserProgress, wasCompleted bool, err error)
}

type AchievementStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Achievement, error)
	// CreateIfAbsent inserts unless (UserID, Type, SubjectID) already exists.
	CreateIfAbsent(ctx context.Context, achievement *model.Achievement) (created bool, err error)
}

// Store bundles every collection the services depend on.
type Store struct {
	Users        UserStore
	Analyses     AnalysisStore
	Modules      ModuleStore
	Progress     ProgressStore
	Achievements AchievementStore
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Analyses:     NewAnalysisRepository(db),
		Modules:      NewModuleRepository(db),
		Progress:     NewProgressRepository(db),
		Achievements: NewAchievementRepository(db),
	}
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &util.StorageError{Op: op, Err: err}
}

// findErr maps a missing row to a not-found error and anything else to a StorageError.
func findErr(missing *util.NotFoundError, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing.WithID(id)
	}
	return storageErr("find "+missing.Resource, err)
}

// distinctDays collapses timestamps to distinct UTC midnights, newest first.
func distinctDays(times []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(times))
	days := make([]time.Time, 0, len(times))
	for _, t := range times {
		u := t.UTC()
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
