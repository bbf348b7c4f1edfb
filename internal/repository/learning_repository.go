package repository

import (
	"context"

	"milguard_backend/internal/model"
	"milguard_backend/internal/util"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) ListActive(ctx context.Context) ([]model.LearningModule, error) {
	var modules []model.LearningModule
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("module_order ASC").
		Find(&modules).Error
	if err != nil {
		return nil, storageErr("list modules", err)
	}
	return modules, nil
}

func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*model.LearningModule, error) {
	var module model.LearningModule
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, findErr(util.ErrModuleNotFound, id, err)
	}
	return &module, nil
}

func (r *ModuleRepository) Create(ctx context.Context, module *model.LearningModule) error {
	return storageErr("create module", r.DB.WithContext(ctx).Create(module).Error)
}

func (r *ModuleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LearningModule{}).Count(&count).Error
	return count, storageErr("count modules", err)
}
