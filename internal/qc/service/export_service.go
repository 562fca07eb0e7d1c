package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet     = "Summary"
	measurementSheet = "Measurements"
)

var measurementExportHeaders = []string{
	"Size", "K Value", "Wash Stage", "Checked Pcs", "Checked Points",
	"Pass", "Fail", "Plus Tol. Fail", "Minus Tol. Fail", "Pass Rate %",
}

// ExportService 检验报告导出
type ExportService struct {
	reports repository.ReportStore
}

func NewExportService(reports repository.ReportStore) *ExportService {
	return &ExportService{reports: reports}
}

// ExportReport 导出表头、汇总和尺码汇总为 xlsx
func (s *ExportService) ExportReport(ctx context.Context, id string) (*excelize.File, string, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(measurementSheet); err != nil {
		return nil, "", fmt.Errorf("new sheet: %w", err)
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	writeSummarySheet(f, report, boldStyle)
	writeMeasurementSheet(f, report, boldStyle)

	filename := fmt.Sprintf("QC_%s_%s_%s.xlsx",
		sanitizeFilename(report.OrderNo),
		sanitizeFilename(report.Color),
		report.InspectionDate.Format(dateLayout))
	return f, filename, nil
}

func writeSummarySheet(f *excelize.File, r *entity.InspectionReport, labelStyle int) {
	pairs := [][2]interface{}{
		{"Report ID", r.ID},
		{"Report Type", r.ReportType},
		{"Order No", r.OrderNo},
		{"Buyer", r.Buyer},
		{"Color", r.Color},
		{"Wash Stage", r.WashStage},
		{"Factory", r.FactoryName},
		{"Inspector", r.InspectorID},
		{"Inspection Date", r.InspectionDate.Format(dateLayout)},
		{"Status", r.Status},
	}
	if aql := r.EffectiveAQL(); aql != nil {
		pairs = append(pairs,
			[2]interface{}{"Sample Size", aql.SampleSize},
			[2]interface{}{"AQL Level", aql.LevelUsed},
			[2]interface{}{"Accepted Defects", aql.AcceptedDefect},
			[2]interface{}{"Rejected Defects", aql.RejectedDefect},
		)
	}
	if s := r.OverallSummary; s != nil {
		pairs = append(pairs,
			[2]interface{}{"Checked Pcs", s.TotalCheckedPcs},
			[2]interface{}{"Checked Points", s.TotalCheckedPoint},
			[2]interface{}{"Pass Points", s.TotalPass},
			[2]interface{}{"Fail Points", s.TotalFail},
			[2]interface{}{"Pass Rate %", s.PassRate},
			[2]interface{}{"Rejected Pcs", s.RejectedDefectPcs},
			[2]interface{}{"Total Defects", s.TotalDefectCount},
			[2]interface{}{"Defect Rate %", s.DefectRate},
			[2]interface{}{"Defect Ratio %", s.DefectRatio},
			[2]interface{}{"Defect Result", s.DefectResult},
			[2]interface{}{"Overall Result", s.OverallFinalResult},
		)
	}

	for i, p := range pairs {
		row := i + 1
		label := fmt.Sprintf("A%d", row)
		f.SetCellValue(summarySheet, label, p[0])
		f.SetCellStyle(summarySheet, label, label, labelStyle)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), p[1])
	}
	f.SetColWidth(summarySheet, "A", "A", 20)
	f.SetColWidth(summarySheet, "B", "B", 40)
}

func writeMeasurementSheet(f *excelize.File, r *entity.InspectionReport, headerStyle int) {
	for i, h := range measurementExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(measurementSheet, cell, h)
		f.SetCellStyle(measurementSheet, cell, cell, headerStyle)
	}

	for i, s := range r.MeasurementDetails.SizeSummaries {
		row := i + 2
		passRate := 100
		if s.CheckedPoints > 0 {
			passRate = s.TotalPass * 100 / s.CheckedPoints
		}
		values := []interface{}{
			s.Size, s.KValue, s.WashStage, s.CheckedPcs, s.CheckedPoints,
			s.TotalPass, s.TotalFail, s.PlusToleranceFailCount, s.MinusToleranceFailCount, passRate,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(measurementSheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	colWidths := []float64{8, 10, 14, 12, 14, 8, 8, 14, 14, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(measurementSheet, col, col, w)
	}
}

func sanitizeFilename(s string) string {
	if s == "" {
		return "NA"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
