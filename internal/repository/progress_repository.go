package repository

import (
	"context"
	"errors"
	"time"

	"milguard_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	var rows []model.UserProgress
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storageErr("list progress", err)
	}
	return rows, nil
}

func lockRow(tx *gorm.DB, userID, moduleID string, row *model.UserProgress) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(row).Error
}

// Upsert serializes writers on the (user_id, module_id) row. A missing row is
// inserted with ON CONFLICT DO NOTHING; if a concurrent insert won, the row is
// re-read under lock and merged instead.
func (r *ProgressRepository) Upsert(ctx context.Context, userID, moduleID string, patch model.ProgressPatch, now time.Time) (*model.UserProgress, bool, error) {
	var (
		result       model.UserProgress
		wasCompleted bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.UserProgress
		err := lockRow(tx, userID, moduleID, &row)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := model.UserProgress{UserID: userID, ModuleID: moduleID}
			fresh.Apply(patch, now)
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				result = fresh
				return nil
			}
			row = model.UserProgress{}
			err = lockRow(tx, userID, moduleID, &row)
		}
		if err != nil {
			return err
		}

		wasCompleted = row.Completed
		row.Apply(patch, now)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, false, storageErr("upsert progress", err)
	}
	return &result, wasCompleted, nil
}
