package repository

import (
	"context"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WashQtyRepository 实际洗水数量仓库
type WashQtyRepository struct {
	db *gorm.DB
}

func NewWashQtyRepository(db *gorm.DB) *WashQtyRepository {
	return &WashQtyRepository{db: db}
}

// Upsert 按 (日期, QC, 款号, 颜色) 新增或更新数量
func (r *WashQtyRepository) Upsert(ctx context.Context, row *entity.RealWashQty) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "inspection_date"}, {Name: "qc_id"}, {Name: "style_no"}, {Name: "color"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"wash_qty", "buyer", "uploaded_by", "updated_at"}),
		}).
		Create(row).Error
}

// FindAll 查询洗水数量
func (r *WashQtyRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RealWashQty, int64, error) {
	var items []entity.RealWashQty
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RealWashQty{})
	if styleNo := filters["style_no"]; styleNo != "" {
		query = query.Where("style_no = ?", styleNo)
	}
	if qcID := filters["qc_id"]; qcID != "" {
		query = query.Where("qc_id = ?", qcID)
	}
	if date := filters["inspection_date"]; date != "" {
		query = query.Where("inspection_date = ?", date)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("inspection_date DESC, style_no ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
