package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/util"

	"gorm.io/datatypes"
)

// MemoryStore keeps every collection in insertion-ordered slices behind one
// mutex. Rows are deep-copied on the way in and out, JSON columns included,
// so callers never alias stored data.
type MemoryStore struct {
	mu           sync.RWMutex
	users        []model.User
	analyses     []model.Analysis
	modules      []model.LearningModule
	progress     []model.UserProgress
	achievements []model.Achievement
}

// NewMemoryStore returns a Store backed by a fresh MemoryStore.
func NewMemoryStore() *Store {
	m := &MemoryStore{}
	return &Store{
		Users:        memoryUsers{m},
		Analyses:     memoryAnalyses{m},
		Modules:      memoryModules{m},
		Progress:     memoryProgress{m},
		Achievements: memoryAchievements{m},
	}
}

type memoryUsers struct{ m *MemoryStore }

func (s memoryUsers) Create(_ context.Context, user *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.m.users {
		if u.Email == user.Email {
			return util.ErrEmailRegistered
		}
	}
	user.EnsureID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.m.users = append(s.m.users, cloneUser(*user))
	return nil
}

func (s memoryUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.ID == id {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, util.ErrUserNotFound.WithID(id)
}

func (s memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.m.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, util.ErrUserNotFound.WithID("")
}

func (s memoryUsers) Update(_ context.Context, id string, update model.UserUpdate) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i := range s.m.users {
		if s.m.users[i].ID == id {
			s.m.users[i].Apply(update)
			s.m.users[i] = cloneUser(s.m.users[i])
			out := cloneUser(s.m.users[i])
			return &out, nil
		}
	}
	return nil, util.ErrUserNotFound.WithID(id)
}

type memoryAnalyses struct{ m *MemoryStore }

func (s memoryAnalyses) Create(_ context.Context, analysis *model.Analysis) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	analysis.EnsureID()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	s.m.analyses = append(s.m.analyses, cloneAnalysis(*analysis))
	return nil
}

func (s memoryAnalyses) FindByID(_ context.Context, id string) (*model.Analysis, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, a := range s.m.analyses {
		if a.ID == id {
			out := cloneAnalysis(a)
			return &out, nil
		}
	}
	return nil, util.ErrAnalysisNotFound.WithID(id)
}

func (s memoryAnalyses) byUser(userID string) []model.Analysis {
	var out []model.Analysis
	// reverse insertion order so equal timestamps still list newest first
	for i := len(s.m.analyses) - 1; i >= 0; i-- {
		if s.m.analyses[i].UserID == userID {
			out = append(out, cloneAnalysis(s.m.analyses[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s memoryAnalyses) ListByUser(_ context.Context, userID string, limit int) ([]model.Analysis, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := s.byUser(userID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memoryAnalyses) CountByUser(_ context.Context, userID string) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var n int64
	for _, a := range s.m.analyses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s memoryAnalyses) CountAIGeneratedByUser(_ context.Context, userID string) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var n int64
	for _, a := range s.m.analyses {
		if a.UserID == userID && a.IsAIGenerated {
			n++
		}
	}
	return n, nil
}

func (s memoryAnalyses) ActivityDays(_ context.Context, userID string) ([]time.Time, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var stamps []time.Time
	for _, a := range s.m.analyses {
		if a.UserID == userID {
			stamps = append(stamps, a.CreatedAt)
		}
	}
	return distinctDays(stamps), nil
}

type memoryModules struct{ m *MemoryStore }

func (s memoryModules) ListActive(_ context.Context) ([]model.LearningModule, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]model.LearningModule, 0, len(s.m.modules))
	for _, mod := range s.m.modules {
		if mod.IsActive {
			out = append(out, cloneModule(mod))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s memoryModules) FindByID(_ context.Context, id string) (*model.LearningModule, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, mod := range s.m.modules {
		if mod.ID == id {
			out := cloneModule(mod)
			return &out, nil
		}
	}
	return nil, util.ErrModuleNotFound.WithID(id)
}

func (s memoryModules) Create(_ context.Context, module *model.LearningModule) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, mod := range s.m.modules {
		if mod.Order == module.Order {
			return storageErr("create module", fmt.Errorf("duplicate module order %d", module.Order))
		}
	}
	module.EnsureID()
	s.m.modules = append(s.m.modules, cloneModule(*module))
	return nil
}

func (s memoryModules) Count(_ context.Context) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return int64(len(s.m.modules)), nil
}

type memoryProgress struct{ m *MemoryStore }

func (s memoryProgress) ListByUser(_ context.Context, userID string) ([]model.UserProgress, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []model.UserProgress
	for _, p := range s.m.progress {
		if p.UserID == userID {
			out = append(out, cloneProgress(p))
		}
	}
	return out, nil
}

// Upsert holds the write lock across read, merge and write.
func (s memoryProgress) Upsert(_ context.Context, userID, moduleID string, patch model.ProgressPatch, now time.Time) (*model.UserProgress, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i := range s.m.progress {
		row := &s.m.progress[i]
		if row.UserID == userID && row.ModuleID == moduleID {
			wasCompleted := row.Completed
			row.Apply(patch, now)
			out := cloneProgress(*row)
			return &out, wasCompleted, nil
		}
	}

	row := model.UserProgress{UserID: userID, ModuleID: moduleID}
	row.EnsureID()
	row.Apply(patch, now)
	s.m.progress = append(s.m.progress, row)
	out := cloneProgress(row)
	return &out, false, nil
}

type memoryAchievements struct{ m *MemoryStore }

func (s memoryAchievements) ListByUser(_ context.Context, userID string) ([]model.Achievement, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []model.Achievement
	for _, a := range s.m.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memoryAchievements) CreateIfAbsent(_ context.Context, achievement *model.Achievement) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, a := range s.m.achievements {
		if a.UserID == achievement.UserID && a.Type == achievement.Type && a.SubjectID == achievement.SubjectID {
			return false, nil
		}
	}
	achievement.EnsureID()
	if achievement.EarnedAt.IsZero() {
		achievement.EarnedAt = time.Now().UTC()
	}
	s.m.achievements = append(s.m.achievements, *achievement)
	return true, nil
}

// cloneJSON copies a JSON column through its encoding so nested maps and
// slices are not shared.
func cloneJSON[T any](v datatypes.JSONType[T]) datatypes.JSONType[T] {
	data, err := json.Marshal(v.Data())
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return datatypes.NewJSONType(out)
}

func cloneUser(u model.User) model.User {
	if u.LearningProgress == nil {
		return u
	}
	data, err := json.Marshal(u.LearningProgress)
	if err != nil {
		return u
	}
	var m datatypes.JSONMap
	if err := json.Unmarshal(data, &m); err == nil {
		u.LearningProgress = m
	}
	return u
}

func cloneAnalysis(a model.Analysis) model.Analysis {
	a.Results = cloneJSON(a.Results)
	return a
}

func cloneModule(m model.LearningModule) model.LearningModule {
	m.Content = cloneJSON(m.Content)
	return m
}

func cloneProgress(p model.UserProgress) model.UserProgress {
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		p.CompletedAt = &at
	}
	return p
}
