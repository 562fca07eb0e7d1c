package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ReportKey 报告自然键，用于自动保存时查找已有报告
type ReportKey struct {
	ReportType     string
	OrderNo        string
	Color          string
	WashStage      string
	FactoryName    string
	InspectorID    string
	InspectionDate time.Time
}

// KeyOf 报告的自然键
func KeyOf(r *entity.InspectionReport) ReportKey {
	return ReportKey{
		ReportType:     r.ReportType,
		OrderNo:        r.OrderNo,
		Color:          r.Color,
		WashStage:      r.WashStage,
		FactoryName:    r.FactoryName,
		InspectorID:    r.InspectorID,
		InspectionDate: r.InspectionDate,
	}
}

// WashQtyMatch 实际洗水数量对应的报告筛选条件
type WashQtyMatch struct {
	ReportType  string
	FactoryName string
	OrderNo     string
	Day         time.Time
}

// ReportStore 检验报告存储。Mutate 在同一报告上串行执行读-改-写。
type ReportStore interface {
	// Create 自然键已存在时返回 ErrDuplicate
	Create(ctx context.Context, report *entity.InspectionReport) error
	FindByID(ctx context.Context, id string) (*entity.InspectionReport, error)
	FindOne(ctx context.Context, key ReportKey) (*entity.InspectionReport, error)
	FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionReport, int64, error)
	FindForWashQty(ctx context.Context, match WashQtyMatch) ([]entity.InspectionReport, error)
	Mutate(ctx context.Context, id string, fn func(report *entity.InspectionReport) error) (*entity.InspectionReport, error)
}

// Repositories QC仓库集合
type Repositories struct {
	Report   ReportStore
	AQLChart *AQLChartRepository
	Settings *SettingsRepository
	WashQty  *WashQtyRepository
}

// NewRepositories 创建QC仓库集合，报告默认存 PostgreSQL
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Report:   NewReportRepository(db),
		AQLChart: NewAQLChartRepository(db),
		Settings: NewSettingsRepository(db),
		WashQty:  NewWashQtyRepository(db),
	}
}

// dayRange 返回 [当天0点, 次日0点)
func dayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
