package repository

import (
	"context"
	"errors"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AQLChartRepository AQL抽样表仓库
type AQLChartRepository struct {
	db *gorm.DB
}

func NewAQLChartRepository(db *gorm.DB) *AQLChartRepository {
	return &AQLChartRepository{db: db}
}

// List 按检验类型与水平查询，按样本量升序
func (r *AQLChartRepository) List(ctx context.Context, inspectionType, level string) ([]entity.AQLChart, error) {
	var items []entity.AQLChart
	query := r.db.WithContext(ctx).Model(&entity.AQLChart{})
	if inspectionType != "" {
		query = query.Where("inspection_type = ?", inspectionType)
	}
	if level != "" {
		query = query.Where("level = ?", level)
	}
	err := query.Order("sample_size ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找
func (r *AQLChartRepository) FindByID(ctx context.Context, id string) (*entity.AQLChart, error) {
	var chart entity.AQLChart
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&chart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &chart, nil
}

// Save 按ID新增或覆盖
func (r *AQLChartRepository) Save(ctx context.Context, chart *entity.AQLChart) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(chart).Error
}

// BatchCreate 批量写入
func (r *AQLChartRepository) BatchCreate(ctx context.Context, charts []entity.AQLChart) error {
	if len(charts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&charts).Error
}

// Delete 删除
func (r *AQLChartRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.AQLChart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count 总行数
func (r *AQLChartRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.AQLChart{}).Count(&total).Error
	return total, err
}
