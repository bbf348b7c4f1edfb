package service

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/util"
	"milguard_backend/pkg/logger"

	"go.uber.org/zap"
)

type ModuleStatus string

const (
	StatusLocked     ModuleStatus = "locked"
	StatusUnlocked   ModuleStatus = "unlocked"
	StatusInProgress ModuleStatus = "in_progress"
	StatusCompleted  ModuleStatus = "completed"
)

// ModuleView is a module as one user sees it.
type ModuleView struct {
	model.LearningModule
	Status    ModuleStatus `json:"status"`
	Unlocked  bool         `json:"unlocked"`
	Progress  float64      `json:"progress"`
	Completed bool         `json:"completed"`
}

// ComputeModuleStates derives unlock state from scratch. modules must be the
// active modules ordered by Order: the first is always unlocked, every other
// one unlocks when its predecessor is completed.
func ComputeModuleStates(modules []model.LearningModule, rows []model.UserProgress) []ModuleView {
	byModule := make(map[string]model.UserProgress, len(rows))
	for _, r := range rows {
		byModule[r.ModuleID] = r
	}

	views := make([]ModuleView, 0, len(modules))
	prevCompleted := true
	for _, m := range modules {
		row, ok := byModule[m.ID]
		v := ModuleView{
			LearningModule: m,
			Unlocked:       prevCompleted,
			Progress:       row.Progress,
			Completed:      ok && row.Completed,
		}
		switch {
		case v.Completed:
			v.Status = StatusCompleted
		case !v.Unlocked:
			v.Status = StatusLocked
		case v.Progress > 0:
			v.Status = StatusInProgress
		default:
			v.Status = StatusUnlocked
		}
		views = append(views, v)
		prevCompleted = v.Completed
	}
	return views
}

// CompletedActive counts completed rows that belong to an active module.
func CompletedActive(modules []model.LearningModule, rows []model.UserProgress) int {
	active := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		active[m.ID] = struct{}{}
	}
	n := 0
	for _, r := range rows {
		if _, ok := active[r.ModuleID]; ok && r.Completed {
			n++
		}
	}
	return n
}

// NormalizeProgress accepts a fraction in [0,1]. A slight overshoot in (1,2)
// counts as 1; values in [2,100] are read as percentages, which older clients
// send.
func NormalizeProgress(v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
		return 0, util.NewValidationError("progress", "must be between 0 and 1")
	case v <= 1:
		return v, nil
	case v < 2:
		return 1, nil
	case v <= 100:
		return v / 100, nil
	}
	return 0, util.NewValidationError("progress", "must be between 0 and 1")
}

type ProgressUpdate struct {
	ModuleID  string
	Progress  *float64
	Completed *bool
}

type ProgressUpdateResult struct {
	model.UserProgress
	NewAchievements []model.Achievement `json:"newAchievements,omitempty"`
}

type Overview struct {
	CompletedModules int `json:"completedModules"`
	TotalModules     int `json:"totalModules"`
	Percentage       int `json:"percentage"`
}

type LearningService struct {
	Modules      repository.ModuleStore
	Progress     repository.ProgressStore
	Achievements *AchievementService

	enforceUnlock atomic.Bool
	now           func() time.Time
}

func NewLearningService(store *repository.Store, achievements *AchievementService, enforceUnlock bool) *LearningService {
	s := &LearningService{
		Modules:      store.Modules,
		Progress:     store.Progress,
		Achievements: achievements,
		now:          time.Now,
	}
	s.SetEnforceUnlock(enforceUnlock)
	return s
}

// SetEnforceUnlock toggles rejecting progress writes to locked modules.
func (s *LearningService) SetEnforceUnlock(enforce bool) {
	s.enforceUnlock.Store(enforce)
}

func (s *LearningService) ListModules(ctx context.Context) ([]model.LearningModule, error) {
	modules, err := s.Modules.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []model.LearningModule{}
	}
	return modules, nil
}

func (s *LearningService) ListModulesWithStatus(ctx context.Context, userID string) ([]ModuleView, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	modules, err := s.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComputeModuleStates(modules, rows), nil
}

func (s *LearningService) GetProgress(ctx context.Context, userID string) ([]model.UserProgress, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	rows, err := s.Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.UserProgress{}
	}
	return rows, nil
}

func (s *LearningService) UpdateProgress(ctx context.Context, userID string, req ProgressUpdate) (*ProgressUpdateResult, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	if req.ModuleID == "" {
		return nil, util.NewValidationError("moduleId", "is required")
	}
	if req.Progress == nil && req.Completed == nil {
		return nil, util.NewValidationError("progress", "progress or completed is required")
	}

	// normalize the progress value
	patch := model.ProgressPatch{Completed: req.Completed}
	if req.Progress != nil {
		p, err := NormalizeProgress(*req.Progress)
		if err != nil {
			return nil, err
		}
		patch.Progress = &p
	}

	// only active modules accept progress
	module, err := s.Modules.FindByID(ctx, req.ModuleID)
	if err != nil {
		return nil, err
	}
	if !module.IsActive {
		return nil, util.ErrModuleNotFound.WithID(req.ModuleID)
	}

	// unlock order
	if s.enforceUnlock.Load() {
		views, err := s.ListModulesWithStatus(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, v := range views {
			if v.ID == module.ID && !v.Unlocked {
				return nil, util.ErrModuleLocked
			}
		}
	}

	row, wasCompleted, err := s.Progress.Upsert(ctx, userID, module.ID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}

	// badges only on the first transition into completed
	result := &ProgressUpdateResult{UserProgress: *row}
	if row.Completed && !wasCompleted && s.Achievements != nil {
		awarded, err := s.Achievements.OnModuleCompleted(ctx, userID, module)
		if err != nil {
			logger.Log.Error("Achievement evaluation failed after module completion",
				zap.String("user_id", userID),
				zap.String("module_id", module.ID),
				zap.Error(err))
		}
		result.NewAchievements = awarded
	}
	return result, nil
}

// AdvanceSection records that the user finished section sectionIndex (0-based).
// Finishing the last section, or any index past it, completes the module.
func (s *LearningService) AdvanceSection(ctx context.Context, userID, moduleID string, sectionIndex int) (*ProgressUpdateResult, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	if sectionIndex < 0 {
		return nil, util.NewValidationError("sectionIndex", "must not be negative")
	}
	module, err := s.Modules.FindByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	sections := len(module.Sections())
	if sectionIndex >= sections-1 {
		done, full := true, 1.0
		return s.UpdateProgress(ctx, userID, ProgressUpdate{ModuleID: moduleID, Progress: &full, Completed: &done})
	}
	progress := float64(sectionIndex+1) / float64(sections)
	return s.UpdateProgress(ctx, userID, ProgressUpdate{ModuleID: moduleID, Progress: &progress})
}

func (s *LearningService) Overview(ctx context.Context, userID string) (*Overview, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	modules, err := s.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		CompletedModules: CompletedActive(modules, rows),
		TotalModules:     len(modules),
	}
	if o.TotalModules > 0 {
		o.Percentage = int(math.Round(float64(o.CompletedModules) * 100 / float64(o.TotalModules)))
	}
	return o, nil
}
