package repository

import (
	"context"
	"time"

	"milguard_backend/internal/model"
	"milguard_backend/internal/util"

	"gorm.io/gorm"
)

type AnalysisRepository struct {
	DB *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{DB: db}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *model.Analysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	return storageErr("create analysis", r.DB.WithContext(ctx).Create(analysis).Error)
}

func (r *AnalysisRepository) FindByID(ctx context.Context, id string) (*model.Analysis, error) {
	var analysis model.Analysis
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&analysis).Error; err != nil {
		return nil, findErr(util.ErrAnalysisNotFound, id, err)
	}
	return &analysis, nil
}

func (r *AnalysisRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Analysis, error) {
	var analyses []model.Analysis
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, storageErr("list analyses", err)
	}
	return analyses, nil
}

func (r *AnalysisRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Analysis{}).Where("user_id = ?", userID).Count(&count).Error
	return count, storageErr("count analyses", err)
}

func (r *AnalysisRepository) CountAIGeneratedByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Analysis{}).
		Where("user_id = ? AND is_ai_generated = ?", userID, true).
		Count(&count).Error
	return count, storageErr("count ai analyses", err)
}

// ActivityDays buckets in Go so the result is the same on mysql and postgres
// regardless of the session time zone.
func (r *AnalysisRepository) ActivityDays(ctx context.Context, userID string) ([]time.Time, error) {
	var stamps []time.Time
	err := r.DB.WithContext(ctx).Model(&model.Analysis{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, storageErr("list activity days", err)
	}
	return distinctDays(stamps), nil
}
