package repository

import (
	"context"
	"errors"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"gorm.io/gorm"
)

// SettingsRepository QC设置仓库
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// LatestFirstOutput 最新的首件数量设置
func (r *SettingsRepository) LatestFirstOutput(ctx context.Context) (*entity.FirstOutputSetting, error) {
	var setting entity.FirstOutputSetting
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &setting, nil
}

// CreateFirstOutput 新增首件数量设置
func (r *SettingsRepository) CreateFirstOutput(ctx context.Context, setting *entity.FirstOutputSetting) error {
	return r.db.WithContext(ctx).Create(setting).Error
}
