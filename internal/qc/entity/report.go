package entity

import (
	"database/sql/driver"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
)

// InspectionReport 洗水/整烫检验报告
type InspectionReport struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	// idx_qc_report_key 自然键：同一检验员同一天同款同色同阶段只有一份报告
	ReportType  string `json:"report_type" gorm:"size:30;index;uniqueIndex:idx_qc_report_key"` // Inline/First Output/SOP
	OrderNo     string `json:"order_no" gorm:"size:50;index;not null;uniqueIndex:idx_qc_report_key"`
	Buyer       string `json:"buyer" gorm:"size:50"`
	Color       string `json:"color" gorm:"size:100;index;uniqueIndex:idx_qc_report_key"`
	WashStage   string `json:"before_after_wash" gorm:"size:30;uniqueIndex:idx_qc_report_key"`
	FactoryName string `json:"factory_name" gorm:"size:50;uniqueIndex:idx_qc_report_key"`
	InspectorID string `json:"inspector_id" gorm:"size:36;index;uniqueIndex:idx_qc_report_key"`

	InspectionDate time.Time `json:"inspection_date" gorm:"type:date;index;uniqueIndex:idx_qc_report_key"`
	LotSize        int       `json:"lot_size"`
	CheckedQty     int       `json:"checked_qty"`

	AQL       *AQLSnapshot `json:"aql" gorm:"type:jsonb"`
	ActualAQL *AQLSnapshot `json:"actual_aql" gorm:"type:jsonb"`

	MeasurementDetails MeasurementDetails `json:"measurement_details" gorm:"type:jsonb"`
	DefectDetails      DefectDetails      `json:"defect_details" gorm:"type:jsonb"`
	OverallSummary     *OverallSummary    `json:"overall_summary" gorm:"type:jsonb"`

	// 冗余列，便于按结果筛选
	OverallFinalResult string `json:"overall_final_result" gorm:"size:10;index"`
	// ResultOverride 人工指定的综合结论，仅接受 Pass/Fail
	ResultOverride string `json:"result_override" gorm:"size:10"`

	Images ImageList `json:"images" gorm:"type:jsonb"`

	Status      string     `json:"status" gorm:"size:20;default:processing;index"`
	SavedAt     *time.Time `json:"saved_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	SubmittedBy string     `json:"submitted_by" gorm:"size:36"`

	CreatedBy string    `json:"created_by" gorm:"size:36"`
	UpdatedBy string    `json:"updated_by" gorm:"size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InspectionReport) TableName() string {
	return "qc_inspection_reports"
}

// 报告状态，processing → submitted 单向
const (
	ReportStatusProcessing = "processing"
	ReportStatusSubmitted  = "submitted"
)

// 报告类型
const (
	ReportTypeInline      = "Inline"
	ReportTypeFirstOutput = "First Output"
	ReportTypeSOP         = "SOP"
)

// IsSubmitted 已提交
func (r *InspectionReport) IsSubmitted() bool {
	return r.Status == ReportStatusSubmitted
}

// EffectiveAQL 优先使用按实际洗水数量计算的 AQL
func (r *InspectionReport) EffectiveAQL() *quality.AQLResult {
	if r.ActualAQL != nil {
		res := r.ActualAQL.AQLResult
		return &res
	}
	if r.AQL != nil {
		res := r.AQL.AQLResult
		return &res
	}
	return nil
}

// SummaryInput 汇总所需的全部已存储输入
func (r *InspectionReport) SummaryInput() quality.SummaryInput {
	return quality.SummaryInput{
		Measurements:  r.MeasurementDetails.Measurement,
		SizeSummaries: r.MeasurementDetails.SizeSummaries,
		Defects:       r.DefectDetails.DefectDetails,
		AQL:           r.EffectiveAQL(),
		Override:      r.ResultOverride,
		ZeroDefects:   r.ReportType == ReportTypeSOP,
	}
}

// AQLSnapshot 解析出的抽样方案及其来源
type AQLSnapshot struct {
	quality.AQLResult
	Buyer        string    `json:"buyer"`
	LotSize      int       `json:"lot_size,omitempty"`
	CalculatedAt time.Time `json:"calculated_at"`
}

func (a AQLSnapshot) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *AQLSnapshot) Scan(src interface{}) error { return jsonbScan(src, a) }

// MeasurementDetails 各尺码原始测量及尺码汇总
type MeasurementDetails struct {
	Measurement   []quality.MeasurementDetail `json:"measurement"`
	SizeSummaries []quality.SizeSummary       `json:"measurement_size_summary"`
}

func (m MeasurementDetails) Value() (driver.Value, error) { return jsonbValue(m) }
func (m *MeasurementDetails) Scan(src interface{}) error { return jsonbScan(src, m) }

// Upsert 按 (尺码, K值, 洗水阶段) 整体替换测量数据与汇总
func (m *MeasurementDetails) Upsert(detail quality.MeasurementDetail, summary quality.SizeSummary) {
	key := summary.Key()
	replaced := false
	for i := range m.Measurement {
		if m.Measurement[i].Key() == key {
			m.Measurement[i] = detail
			replaced = true
			break
		}
	}
	if !replaced {
		m.Measurement = append(m.Measurement, detail)
	}

	replaced = false
	for i := range m.SizeSummaries {
		if m.SizeSummaries[i].Key() == key {
			m.SizeSummaries[i] = summary
			replaced = true
			break
		}
	}
	if !replaced {
		m.SizeSummaries = append(m.SizeSummaries, summary)
	}
}

// DefectDetails 缺陷录入
type DefectDetails struct {
	quality.DefectDetails
}

func (d DefectDetails) Value() (driver.Value, error) { return jsonbValue(d) }
func (d *DefectDetails) Scan(src interface{}) error { return jsonbScan(src, d) }

// OverallSummary 报告级汇总
type OverallSummary struct {
	quality.OverallSummary
	CalculatedAt time.Time `json:"calculated_at"`
}

func (o OverallSummary) Value() (driver.Value, error) { return jsonbValue(o) }
func (o *OverallSummary) Scan(src interface{}) error { return jsonbScan(src, o) }

// ImageList 已上传图片的对象存储键
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonbValue([]string(l))
}

func (l *ImageList) Scan(src interface{}) error { return jsonbScan(src, (*[]string)(l)) }
