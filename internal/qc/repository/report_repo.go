package repository

import (
	"context"
	"errors"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository 检验报告仓库（PostgreSQL）
type ReportRepository struct {
	db *gorm.DB
}

var _ ReportStore = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindAll 查询报告列表
func (r *ReportRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionReport, int64, error) {
	var items []entity.InspectionReport
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InspectionReport{})

	if orderNo := filters["order_no"]; orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	if color := filters["color"]; color != "" {
		query = query.Where("color = ?", color)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if reportType := filters["report_type"]; reportType != "" {
		query = query.Where("report_type = ?", reportType)
	}
	if factory := filters["factory_name"]; factory != "" {
		query = query.Where("factory_name = ?", factory)
	}
	if inspector := filters["inspector_id"]; inspector != "" {
		query = query.Where("inspector_id = ?", inspector)
	}
	if result := filters["overall_final_result"]; result != "" {
		query = query.Where("overall_final_result = ?", result)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找报告
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*entity.InspectionReport, error) {
	var report entity.InspectionReport
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// FindOne 按自然键查找
func (r *ReportRepository) FindOne(ctx context.Context, key ReportKey) (*entity.InspectionReport, error) {
	start, end := dayRange(key.InspectionDate)

	var report entity.InspectionReport
	err := r.db.WithContext(ctx).
		Where("report_type = ? AND order_no = ? AND color = ?", key.ReportType, key.OrderNo, key.Color).
		Where("wash_stage = ? AND factory_name = ? AND inspector_id = ?", key.WashStage, key.FactoryName, key.InspectorID).
		Where("inspection_date >= ? AND inspection_date < ?", start, end).
		Order("created_at DESC").
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// FindForWashQty 查找同款号、同日期的报告，颜色由调用方比较
func (r *ReportRepository) FindForWashQty(ctx context.Context, match WashQtyMatch) ([]entity.InspectionReport, error) {
	start, end := dayRange(match.Day)

	var items []entity.InspectionReport
	query := r.db.WithContext(ctx).
		Where("order_no = ?", match.OrderNo).
		Where("inspection_date >= ? AND inspection_date < ?", start, end)
	if match.ReportType != "" {
		query = query.Where("report_type = ?", match.ReportType)
	}
	if match.FactoryName != "" {
		query = query.Where("factory_name = ?", match.FactoryName)
	}
	err := query.Find(&items).Error
	return items, err
}

// Create 创建报告，依赖 idx_qc_report_key 唯一索引挡住并发的重复创建
func (r *ReportRepository) Create(ctx context.Context, report *entity.InspectionReport) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(report)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// Mutate 事务内 SELECT ... FOR UPDATE 后执行 fn 并整体保存
func (r *ReportRepository) Mutate(ctx context.Context, id string, fn func(report *entity.InspectionReport) error) (*entity.InspectionReport, error) {
	var report entity.InspectionReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&report).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&report); err != nil {
			return err
		}
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
