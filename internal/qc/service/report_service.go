package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// 报告变更动作，随 SSE 推送
const (
	ActionOrderSaved       = "order_saved"
	ActionMeasurementSaved = "measurement_saved"
	ActionDefectsSaved     = "defects_saved"
	ActionRecalculated     = "recalculated"
	ActionSubmitted        = "submitted"
)

// ReportService 检验报告服务。所有修改经 ReportStore.Mutate 串行化。
type ReportService struct {
	reports  repository.ReportStore
	aql      *AQLService
	buyers   *quality.BuyerTable
	events   EventPublisher
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportService(reports repository.ReportStore, aql *AQLService, buyers *quality.BuyerTable, events EventPublisher, notifier Notifier, logger *zap.Logger) *ReportService {
	if buyers == nil {
		buyers = quality.DefaultBuyerTable()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:  reports,
		aql:      aql,
		buyers:   buyers,
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// List 报告列表
func (s *ReportService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionReport, int64, error) {
	return s.reports.FindAll(ctx, page, pageSize, filters)
}

// Get 报告详情
func (s *ReportService) Get(ctx context.Context, id string) (*entity.InspectionReport, error) {
	return s.reports.FindByID(ctx, id)
}

// FindSubmitted 同款同色已提交的报告
func (s *ReportService) FindSubmitted(ctx context.Context, orderNo, color string) ([]entity.InspectionReport, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no is required", ErrInvalidInput)
	}
	filters := map[string]string{
		"order_no": orderNo,
		"status":   entity.ReportStatusSubmitted,
	}
	if color != "" {
		filters["color"] = color
	}
	items, _, err := s.reports.FindAll(ctx, 1, 100, filters)
	return items, err
}

// SaveOrderDataRequest 报告表头自动保存
type SaveOrderDataRequest struct {
	ID             string `json:"id"`
	ReportType     string `json:"report_type" binding:"required"`
	OrderNo        string `json:"order_no" binding:"required"`
	Color          string `json:"color"`
	WashStage      string `json:"before_after_wash"`
	FactoryName    string `json:"factory_name"`
	InspectionDate string `json:"inspection_date"` // YYYY-MM-DD，空为当天
	LotSize        int    `json:"lot_size"`
	SampleSize     int    `json:"sample_size"`
	CheckedQty     int    `json:"checked_qty"`
	// 为空时保留已有测量数据
	Measurement []quality.MeasurementDetail `json:"measurement"`
}

// SaveOrderData 按 ID 或自然键找到报告后更新表头，找不到则新建
func (s *ReportService) SaveOrderData(ctx context.Context, userID string, req *SaveOrderDataRequest) (*entity.InspectionReport, error) {
	if strings.TrimSpace(req.OrderNo) == "" || strings.TrimSpace(req.ReportType) == "" {
		return nil, fmt.Errorf("%w: order_no and report_type are required", ErrInvalidInput)
	}
	if req.LotSize < 0 || req.SampleSize < 0 || req.CheckedQty < 0 {
		return nil, fmt.Errorf("%w: quantities must not be negative", ErrInvalidInput)
	}
	day, err := s.parseDay(req.InspectionDate)
	if err != nil {
		return nil, err
	}
	washStage := quality.NormalizeWashStage(req.WashStage)
	buyer := s.buyers.ResolveBuyer(req.OrderNo)

	var snapshot *entity.AQLSnapshot
	if req.LotSize > 0 || req.SampleSize > 0 {
		aqlReq := &AQLRequest{OrderNo: req.OrderNo, Buyer: buyer}
		if req.SampleSize > 0 {
			aqlReq.SampleSize = req.SampleSize
		} else {
			aqlReq.LotSize = req.LotSize
		}
		res, err := s.aql.Resolve(ctx, aqlReq)
		if err != nil {
			return nil, err
		}
		snapshot = &entity.AQLSnapshot{AQLResult: res.AQLResult, Buyer: buyer, LotSize: req.LotSize, CalculatedAt: s.now()}
	}

	var details []quality.MeasurementDetail
	for _, d := range req.Measurement {
		d.WashStage = quality.NormalizeWashStage(d.WashStage)
		quality.ScorePoints(&d, false)
		details = append(details, d)
	}

	apply := func(r *entity.InspectionReport) error {
		if r.IsSubmitted() {
			return ErrAlreadySubmitted
		}
		r.ReportType = req.ReportType
		r.OrderNo = req.OrderNo
		r.Buyer = buyer
		r.Color = req.Color
		r.WashStage = washStage
		r.FactoryName = req.FactoryName
		r.InspectionDate = day
		if req.LotSize > 0 {
			r.LotSize = req.LotSize
		}
		if req.CheckedQty > 0 {
			r.CheckedQty = req.CheckedQty
		}
		if snapshot != nil {
			r.AQL = snapshot
		}
		for _, d := range details {
			r.MeasurementDetails.Upsert(d, quality.AggregateSize(d))
		}
		now := s.now()
		r.SavedAt = &now
		r.UpdatedBy = userID
		s.applySummary(r)
		return nil
	}

	update := func(id string) (*entity.InspectionReport, error) {
		report, err := s.reports.Mutate(ctx, id, apply)
		if err != nil {
			return nil, fmt.Errorf("save order data: %w", err)
		}
		s.publish(report, ActionOrderSaved)
		return report, nil
	}

	existing, err := s.findExisting(ctx, userID, req, washStage, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return update(existing.ID)
	}

	report := &entity.InspectionReport{
		ID:          uuid.New().String(),
		InspectorID: userID,
		Status:      entity.ReportStatusProcessing,
		CreatedBy:   userID,
		CreatedAt:   s.now(),
	}
	if err := apply(report); err != nil {
		return nil, err
	}
	err = s.reports.Create(ctx, report)
	if errors.Is(err, repository.ErrDuplicate) {
		// 并发的首次保存已建好同键报告，改为更新它
		existing, err = s.findExisting(ctx, userID, req, washStage, day)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("create report: %w", repository.ErrDuplicate)
		}
		return update(existing.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	s.logger.Info("inspection report created",
		zap.String("report_id", report.ID),
		zap.String("order_no", report.OrderNo),
		zap.String("report_type", report.ReportType))
	s.publish(report, ActionOrderSaved)
	return report, nil
}

func (s *ReportService) findExisting(ctx context.Context, userID string, req *SaveOrderDataRequest, washStage string, day time.Time) (*entity.InspectionReport, error) {
	if req.ID != "" {
		return s.reports.FindByID(ctx, req.ID)
	}
	report, err := s.reports.FindOne(ctx, repository.ReportKey{
		ReportType:     req.ReportType,
		OrderNo:        req.OrderNo,
		Color:          req.Color,
		WashStage:      washStage,
		FactoryName:    req.FactoryName,
		InspectorID:    userID,
		InspectionDate: day,
	})
	if isNotFound(err) {
		return nil, nil
	}
	return report, err
}

// SaveMeasurementRequest 一个尺码/K值/洗水阶段的完整测量数据
type SaveMeasurementRequest struct {
	Size      string          `json:"size" binding:"required"`
	KValue    string          `json:"kvalue"`
	WashStage string          `json:"before_after_wash"`
	Qty       int             `json:"qty"`
	Pcs       []quality.Piece `json:"pcs"`
	// Reevaluate 为 true 时忽略已存储的 pass/fail 全部重判
	Reevaluate bool `json:"reevaluate"`
}

// MeasurementResult 保存后的尺码汇总与报告
type MeasurementResult struct {
	SizeSummary quality.SizeSummary      `json:"size_summary"`
	Report      *entity.InspectionReport `json:"report"`
}

// SaveMeasurement 整体替换同键的测量数据与尺码汇总。已提交的报告返回 ErrAlreadySubmitted。
func (s *ReportService) SaveMeasurement(ctx context.Context, id, userID string, req *SaveMeasurementRequest) (*MeasurementResult, error) {
	if req.Size == "" || req.KValue == "" || req.WashStage == "" {
		return nil, fmt.Errorf("%w: size, kvalue and before_after_wash are required", ErrInvalidInput)
	}
	if req.Qty < 0 {
		return nil, fmt.Errorf("%w: qty must not be negative", ErrInvalidInput)
	}

	detail := quality.MeasurementDetail{
		Size:      req.Size,
		KValue:    req.KValue,
		WashStage: quality.NormalizeWashStage(req.WashStage),
		Qty:       req.Qty,
		Pcs:       req.Pcs,
	}
	quality.ScorePoints(&detail, req.Reevaluate)
	summary := quality.AggregateSize(detail)

	report, err := s.reports.Mutate(ctx, id, func(r *entity.InspectionReport) error {
		if r.IsSubmitted() {
			return ErrAlreadySubmitted
		}
		r.MeasurementDetails.Upsert(detail, summary)
		now := s.now()
		r.SavedAt = &now
		r.UpdatedBy = userID
		s.applySummary(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("measurement saved",
		zap.String("report_id", id),
		zap.String("size", summary.Size),
		zap.String("wash_stage", summary.WashStage),
		zap.Int("checked_points", summary.CheckedPoints),
		zap.Int("total_fail", summary.TotalFail))
	s.publish(report, ActionMeasurementSaved)
	return &MeasurementResult{SizeSummary: summary, Report: report}, nil
}

// SaveDefectsRequest 缺陷录入
type SaveDefectsRequest struct {
	CheckedQty  int                    `json:"checked_qty"`
	DefectsByPc []quality.PieceDefects `json:"defects_by_pc"`
	Result      string                 `json:"result"`
}

// SaveDefects 保存缺陷。只保存录入的 Pass/Fail，推导结论在每次汇总时按当前 AQL 重新计算。
func (s *ReportService) SaveDefects(ctx context.Context, id, userID string, req *SaveDefectsRequest) (*entity.InspectionReport, error) {
	if req.CheckedQty < 0 {
		return nil, fmt.Errorf("%w: checked_qty must not be negative", ErrInvalidInput)
	}
	details := quality.DefectDetails{
		CheckedQty:  req.CheckedQty,
		DefectsByPc: req.DefectsByPc,
	}
	if quality.ValidOutcome(req.Result) {
		details.Result = req.Result
	}

	report, err := s.reports.Mutate(ctx, id, func(r *entity.InspectionReport) error {
		if r.IsSubmitted() {
			return ErrAlreadySubmitted
		}
		ds := quality.SummarizeDefects(details, r.EffectiveAQL())
		if ds.RejectedPcs > ds.CheckedQty {
			return fmt.Errorf("%w: %d rejected pieces exceed checked qty %d", ErrInvalidDefectDetails, ds.RejectedPcs, ds.CheckedQty)
		}
		r.DefectDetails = entity.DefectDetails{DefectDetails: details}
		now := s.now()
		r.SavedAt = &now
		r.UpdatedBy = userID
		s.applySummary(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(report, ActionDefectsSaved)
	return report, nil
}

// RecalculateResult 重算前后的综合结论
type RecalculateResult struct {
	PreviousResult string                   `json:"previous_result"`
	Summary        *entity.OverallSummary   `json:"summary"`
	Report         *entity.InspectionReport `json:"report"`
}

// RecalculateSummary 从已存储数据重算汇总。override 为 Pass/Fail 时覆盖结论，其他值清除人工结论。
// 已提交报告的结论锁定，返回 ErrAlreadySubmitted。
func (s *ReportService) RecalculateSummary(ctx context.Context, id, userID, override string) (*RecalculateResult, error) {
	var previous string
	report, err := s.reports.Mutate(ctx, id, func(r *entity.InspectionReport) error {
		if r.IsSubmitted() {
			return ErrAlreadySubmitted
		}
		previous = r.OverallFinalResult
		if quality.ValidOutcome(override) {
			r.ResultOverride = override
		} else {
			r.ResultOverride = ""
		}
		r.UpdatedBy = userID
		s.applySummary(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != report.OverallFinalResult {
		s.logger.Info("overall result changed",
			zap.String("report_id", id),
			zap.String("previous", previous),
			zap.String("current", report.OverallFinalResult))
	}
	s.publish(report, ActionRecalculated)
	return &RecalculateResult{PreviousResult: previous, Summary: report.OverallSummary, Report: report}, nil
}

// SummaryView 已存储的与按当前数据计算的汇总
type SummaryView struct {
	Stored   *entity.OverallSummary `json:"stored"`
	Computed quality.OverallSummary `json:"computed"`
}

// GetSummary 只计算不保存
func (s *ReportService) GetSummary(ctx context.Context, id string) (*SummaryView, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SummaryView{
		Stored:   report.OverallSummary,
		Computed: quality.Summarize(report.SummaryInput()),
	}, nil
}

// Submit 重算汇总后置为已提交。processing → submitted 单向，重复提交返回 ErrAlreadySubmitted。
func (s *ReportService) Submit(ctx context.Context, id, userID string) (*entity.InspectionReport, error) {
	report, err := s.reports.Mutate(ctx, id, func(r *entity.InspectionReport) error {
		if r.IsSubmitted() {
			return ErrAlreadySubmitted
		}
		s.applySummary(r)
		now := s.now()
		r.Status = entity.ReportStatusSubmitted
		r.SubmittedAt = &now
		r.SubmittedBy = userID
		r.UpdatedBy = userID
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadySubmitted) && !isNotFound(err) {
			s.logger.Error("submit report failed", zap.String("report_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("inspection report submitted",
		zap.String("report_id", report.ID),
		zap.String("order_no", report.OrderNo),
		zap.String("result", report.OverallFinalResult),
		zap.String("submitted_by", userID))
	if report.OverallFinalResult == quality.OutcomeFail {
		s.notifier.NotifyReportFailed(ctx, report)
	}
	s.publish(report, ActionSubmitted)
	return report, nil
}

// applySummary 保存、重算、提交共用的汇总逻辑
func (s *ReportService) applySummary(r *entity.InspectionReport) {
	summary := quality.Summarize(r.SummaryInput())
	r.OverallSummary = &entity.OverallSummary{OverallSummary: summary, CalculatedAt: s.now()}
	r.OverallFinalResult = summary.OverallFinalResult
}

func (s *ReportService) publish(r *entity.InspectionReport, action string) {
	if s.events == nil || r == nil {
		return
	}
	s.events.PublishReportUpdate(sse.ReportUpdate{
		ReportID: r.ID,
		OrderNo:  r.OrderNo,
		Action:   action,
		Status:   r.Status,
		Result:   r.OverallFinalResult,
	})
}

func (s *ReportService) parseDay(value string) (time.Time, error) {
	if value == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: inspection_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return day, nil
}
