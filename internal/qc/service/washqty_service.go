package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 实际洗水数量只回写 YM 工厂的 Inline 报告
const washQtyFactory = "YM"

// WashQtyHeaders 导入文件表头
var WashQtyHeaders = []string{"Inspection Date", "QC ID", "Style No", "Color", "Wash Qty"}

var washQtyDateLayouts = []string{
	dateLayout,
	"2006/01/02",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	time.RFC3339,
}

// WashQtyService 实际洗水数量导入
type WashQtyService struct {
	repo    WashQtyStore
	reports repository.ReportStore
	aql     *AQLService
	buyers  *quality.BuyerTable
	logger  *zap.Logger
}

func NewWashQtyService(repo WashQtyStore, reports repository.ReportStore, aql *AQLService, buyers *quality.BuyerTable, logger *zap.Logger) *WashQtyService {
	if buyers == nil {
		buyers = quality.DefaultBuyerTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WashQtyService{repo: repo, reports: reports, aql: aql, buyers: buyers, logger: logger}
}

// WashQtyRow 一行导入数据，WashQty 为 -1 表示数量无法解析
type WashQtyRow struct {
	InspectionDate string `json:"inspection_date"`
	QCID           string `json:"qc_id"`
	StyleNo        string `json:"style_no"`
	Color          string `json:"color"`
	WashQty        int    `json:"wash_qty"`
}

// RowError 行号从 1 开始（不含表头）
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult 导入结果
type ImportResult struct {
	Total          int        `json:"total"`
	Saved          int        `json:"saved"`
	Failed         int        `json:"failed"`
	ReportsUpdated int        `json:"reports_updated"`
	Errors         []RowError `json:"errors,omitempty"`
}

// List 已导入的洗水数量
func (s *WashQtyService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RealWashQty, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Import 逐行保存洗水数量，按数量解析实际 AQL 并写入匹配报告的 actual_aql。
// 匹配报告的汇总不重算。
func (s *WashQtyService) Import(ctx context.Context, userID string, rows []WashQtyRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to import", ErrInvalidInput)
	}

	result := &ImportResult{Total: len(rows)}
	fail := func(i int, format string, args ...interface{}) {
		result.Failed++
		result.Errors = append(result.Errors, RowError{Row: i + 1, Message: fmt.Sprintf(format, args...)})
	}

	for i, row := range rows {
		day, err := parseWashQtyDate(row.InspectionDate)
		if err != nil {
			fail(i, "invalid inspection date %q", row.InspectionDate)
			continue
		}
		row.QCID = strings.TrimSpace(row.QCID)
		row.StyleNo = strings.TrimSpace(row.StyleNo)
		row.Color = strings.TrimSpace(row.Color)
		if row.QCID == "" || row.StyleNo == "" || row.Color == "" {
			fail(i, "qc_id, style_no and color are required")
			continue
		}
		if row.WashQty < 0 {
			fail(i, "wash qty must be a non-negative integer")
			continue
		}

		buyer := s.buyers.ResolveBuyer(row.StyleNo)
		record := &entity.RealWashQty{
			ID:             uuid.New().String(),
			InspectionDate: day,
			QCID:           row.QCID,
			StyleNo:        row.StyleNo,
			Color:          row.Color,
			WashQty:        row.WashQty,
			Buyer:          buyer,
			UploadedBy:     userID,
		}
		if err := s.repo.Upsert(ctx, record); err != nil {
			fail(i, "save failed: %v", err)
			continue
		}
		result.Saved++

		updated, err := s.applyActualAQL(ctx, row, day, buyer)
		if err != nil {
			s.logger.Warn("actual AQL not applied",
				zap.String("style_no", row.StyleNo),
				zap.Int("wash_qty", row.WashQty),
				zap.Error(err))
			continue
		}
		result.ReportsUpdated += updated
	}

	s.logger.Info("wash qty imported",
		zap.Int("total", result.Total),
		zap.Int("saved", result.Saved),
		zap.Int("failed", result.Failed),
		zap.Int("reports_updated", result.ReportsUpdated))
	return result, nil
}

func (s *WashQtyService) applyActualAQL(ctx context.Context, row WashQtyRow, day time.Time, buyer string) (int, error) {
	if row.WashQty == 0 {
		return 0, nil
	}
	res, err := s.aql.Resolve(ctx, &AQLRequest{LotSize: row.WashQty, Buyer: buyer})
	if err != nil {
		return 0, err
	}
	snapshot := &entity.AQLSnapshot{
		AQLResult:    res.AQLResult,
		Buyer:        buyer,
		LotSize:      row.WashQty,
		CalculatedAt: time.Now(),
	}

	reports, err := s.reports.FindForWashQty(ctx, repository.WashQtyMatch{
		ReportType:  entity.ReportTypeInline,
		FactoryName: washQtyFactory,
		OrderNo:     row.StyleNo,
		Day:         day,
	})
	if err != nil {
		return 0, fmt.Errorf("find reports: %w", err)
	}

	color := ExtractEnglishColor(row.Color)
	updated := 0
	for _, r := range reports {
		if r.Color != color {
			continue
		}
		if _, err := s.reports.Mutate(ctx, r.ID, func(report *entity.InspectionReport) error {
			report.ActualAQL = snapshot
			return nil
		}); err != nil {
			return updated, fmt.Errorf("update report %s: %w", r.ID, err)
		}
		updated++
	}
	return updated, nil
}

var bracketColor = regexp.MustCompile(`\[([^\]]+)\]$`)

// ExtractEnglishColor "黑色[BLACK]" → "BLACK"，没有方括号时原样返回
func ExtractEnglishColor(color string) string {
	if m := bracketColor.FindStringSubmatch(color); m != nil {
		return m[1]
	}
	return color
}

// ParseXLSX 读取第一个工作表
func (s *WashQtyService) ParseXLSX(r io.Reader) ([]WashQtyRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid excel file: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	return parseWashQtyTable(rows)
}

// ParseCSV 支持 UTF-8 与 GBK 编码
func (s *WashQtyService) ParseCSV(r io.Reader) ([]WashQtyRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var reader io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// GBK → UTF-8
		reader = transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %v", ErrInvalidInput, err)
	}
	return parseWashQtyTable(records)
}

func parseWashQtyTable(records [][]string) ([]WashQtyRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		index[headerKey(h)] = i
	}
	cols := make([]int, len(WashQtyHeaders))
	for i, h := range WashQtyHeaders {
		col, ok := index[headerKey(h)]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidInput, h)
		}
		cols[i] = col
	}

	cell := func(rec []string, col int) string {
		if col < len(rec) {
			return strings.TrimSpace(rec[col])
		}
		return ""
	}

	var rows []WashQtyRow
	for _, rec := range records[1:] {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		qty, err := strconv.Atoi(strings.ReplaceAll(cell(rec, cols[4]), ",", ""))
		if err != nil {
			qty = -1
		}
		rows = append(rows, WashQtyRow{
			InspectionDate: cell(rec, cols[0]),
			QCID:           cell(rec, cols[1]),
			StyleNo:        cell(rec, cols[2]),
			Color:          cell(rec, cols[3]),
			WashQty:        qty,
		})
	}
	return rows, nil
}

// headerKey "QC ID" / "qc_id" / "QC_Id" 视为同一列
func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func parseWashQtyDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range washQtyDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}
