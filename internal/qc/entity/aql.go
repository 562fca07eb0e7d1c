package entity

import (
	"database/sql/driver"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
)

// AQLChart AQL 抽样表（参考数据）
type AQLChart struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	InspectionType   string     `json:"inspection_type" gorm:"size:20;not null;index:idx_aql_chart_type_level"`
	Level            string     `json:"level" gorm:"size:10;not null;index:idx_aql_chart_type_level"`
	SampleSizeLetter string     `json:"sample_size_letter" gorm:"size:5"`
	SampleSize       int        `json:"sample_size" gorm:"not null"`
	LotSizeMin       int        `json:"lot_size_min"`
	LotSizeMax       *int       `json:"lot_size_max"`
	Entries          AQLEntries `json:"entries" gorm:"type:jsonb"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (AQLChart) TableName() string {
	return "qc_aql_charts"
}

// Row 转换为抽样表行
func (c AQLChart) Row() quality.ChartRow {
	return quality.ChartRow{
		InspectionType: c.InspectionType,
		Level:          c.Level,
		SampleSize:     c.SampleSize,
		LotSize:        quality.LotSizeRange{Min: c.LotSizeMin, Max: c.LotSizeMax},
		Entries:        []quality.AQLEntry(c.Entries),
	}
}

// AQLEntries 等级 → 允收/拒收
type AQLEntries []quality.AQLEntry

func (e AQLEntries) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return jsonbValue([]quality.AQLEntry(e))
}

func (e *AQLEntries) Scan(src interface{}) error {
	return jsonbScan(src, (*[]quality.AQLEntry)(e))
}

// FirstOutputSetting 首件检验数量设置，最新一条生效
type FirstOutputSetting struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedBy string    `json:"created_by" gorm:"size:36"`
	CreatedAt time.Time `json:"created_at"`
}

func (FirstOutputSetting) TableName() string {
	return "qc_first_output_settings"
}

// RealWashQty 实际洗水数量（按日期/QC/款号/颜色唯一）
type RealWashQty struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	InspectionDate time.Time `json:"inspection_date" gorm:"type:date;not null;uniqueIndex:idx_real_wash_qty_key"`
	QCID           string    `json:"qc_id" gorm:"column:qc_id;size:36;not null;uniqueIndex:idx_real_wash_qty_key"`
	StyleNo        string    `json:"style_no" gorm:"size:50;not null;uniqueIndex:idx_real_wash_qty_key"`
	Color          string    `json:"color" gorm:"size:100;not null;uniqueIndex:idx_real_wash_qty_key"`
	WashQty        int       `json:"wash_qty"`
	Buyer          string    `json:"buyer" gorm:"size:50"`
	UploadedBy     string    `json:"uploaded_by" gorm:"size:36"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (RealWashQty) TableName() string {
	return "qc_real_wash_qty"
}

// All 需要迁移的全部表
func All() []interface{} {
	return []interface{}{
		&InspectionReport{},
		&AQLChart{},
		&FirstOutputSetting{},
		&RealWashQty{},
	}
}
