package repository

import (
	"context"
	"time"

	"milguard_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, storageErr("list achievements", err)
	}
	return achievements, nil
}

// CreateIfAbsent relies on the unique (user_id, type, subject_id) index, so
// concurrent evaluators cannot mint the same badge twice.
func (r *AchievementRepository) CreateIfAbsent(ctx context.Context, achievement *model.Achievement) (bool, error) {
	if achievement.EarnedAt.IsZero() {
		achievement.EarnedAt = time.Now().UTC()
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(achievement)
	if res.Error != nil {
		return false, storageErr("create achievement", res.Error)
	}
	return res.RowsAffected == 1, nil
}
