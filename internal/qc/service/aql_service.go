package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// chartCacheKey General/II 抽样表缓存
const chartCacheKey = "aql:charts:" + quality.InspectionTypeGeneral + ":" + quality.InspectionLevelII

const defaultChartTTL = 10 * time.Minute

// AQLService 买家识别与抽样方案解析
type AQLService struct {
	charts   ChartStore
	settings SettingsStore
	rdb      *redis.Client
	ttl      time.Duration
	buyers   *quality.BuyerTable
	logger   *zap.Logger
}

func NewAQLService(charts ChartStore, settings SettingsStore, rdb *redis.Client, ttl time.Duration, buyers *quality.BuyerTable, logger *zap.Logger) *AQLService {
	if ttl <= 0 {
		ttl = defaultChartTTL
	}
	if buyers == nil {
		buyers = quality.DefaultBuyerTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AQLService{charts: charts, settings: settings, rdb: rdb, ttl: ttl, buyers: buyers, logger: logger}
}

// BuyerInfo 买家及其 AQL 等级
type BuyerInfo struct {
	MoNo     string  `json:"mo_no"`
	Buyer    string  `json:"buyer"`
	AQLLevel float64 `json:"aql_level"`
}

// ResolveBuyer 根据MO号识别买家
func (s *AQLService) ResolveBuyer(moNo string) BuyerInfo {
	buyer := s.buyers.ResolveBuyer(moNo)
	return BuyerInfo{MoNo: moNo, Buyer: buyer, AQLLevel: s.buyers.ResolveAQLLevel(buyer)}
}

// AQLRequest LotSize 与 SampleSize 只能给一个
type AQLRequest struct {
	LotSize    int    `json:"lot_size"`
	SampleSize int    `json:"sample_size"`
	OrderNo    string `json:"order_no"`
	Buyer      string `json:"buyer"`
}

// AQLResponse 解析结果
type AQLResponse struct {
	Buyer string `json:"buyer"`
	quality.AQLResult
}

// Resolve 按批量或样本量解析抽样方案
func (s *AQLService) Resolve(ctx context.Context, req *AQLRequest) (*AQLResponse, error) {
	if (req.LotSize > 0) == (req.SampleSize > 0) {
		return nil, fmt.Errorf("%w: exactly one of lot_size and sample_size must be positive", ErrInvalidInput)
	}
	buyer := req.Buyer
	if buyer == "" {
		buyer = s.buyers.ResolveBuyer(req.OrderNo)
	}

	rows, err := s.chartRows(ctx)
	if err != nil {
		return nil, err
	}
	res, err := quality.ResolveAQL(rows, s.buyers, quality.AQLQuery{
		LotSize:    req.LotSize,
		SampleSize: req.SampleSize,
		Buyer:      buyer,
	})
	if err != nil {
		return nil, err
	}
	return &AQLResponse{Buyer: buyer, AQLResult: res}, nil
}

// FirstOutputAQL 首件检验数量与抽样方案
type FirstOutputAQL struct {
	CheckedQty int `json:"checked_qty"`
	AQLResponse
}

// ResolveFirstOutput 使用最新的首件数量作为样本量
func (s *AQLService) ResolveFirstOutput(ctx context.Context, orderNo string) (*FirstOutputAQL, error) {
	setting, err := s.settings.LatestFirstOutput(ctx)
	if err != nil {
		return nil, fmt.Errorf("first output setting: %w", err)
	}
	res, err := s.Resolve(ctx, &AQLRequest{SampleSize: setting.Quantity, OrderNo: orderNo})
	if err != nil {
		return nil, err
	}
	return &FirstOutputAQL{CheckedQty: setting.Quantity, AQLResponse: *res}, nil
}

// ListCharts 全部抽样表行
func (s *AQLService) ListCharts(ctx context.Context, inspectionType, level string) ([]entity.AQLChart, error) {
	return s.charts.List(ctx, inspectionType, level)
}

// SaveChartRequest 新增或覆盖抽样表行
type SaveChartRequest struct {
	ID               string             `json:"id"`
	InspectionType   string             `json:"inspection_type"`
	Level            string             `json:"level"`
	SampleSizeLetter string             `json:"sample_size_letter"`
	SampleSize       int                `json:"sample_size" binding:"required"`
	LotSizeMin       int                `json:"lot_size_min"`
	LotSizeMax       *int               `json:"lot_size_max"`
	Entries          []quality.AQLEntry `json:"entries" binding:"required"`
}

// SaveChart 校验后保存，并使缓存失效
func (s *AQLService) SaveChart(ctx context.Context, req *SaveChartRequest) (*entity.AQLChart, error) {
	chart := &entity.AQLChart{
		ID:               req.ID,
		InspectionType:   req.InspectionType,
		Level:            req.Level,
		SampleSizeLetter: req.SampleSizeLetter,
		SampleSize:       req.SampleSize,
		LotSizeMin:       req.LotSizeMin,
		LotSizeMax:       req.LotSizeMax,
		Entries:          entity.AQLEntries(req.Entries),
	}
	if chart.ID == "" {
		chart.ID = uuid.New().String()
	}
	if chart.InspectionType == "" {
		chart.InspectionType = quality.InspectionTypeGeneral
	}
	if chart.Level == "" {
		chart.Level = quality.InspectionLevelII
	}
	if err := chart.Row().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.charts.Save(ctx, chart); err != nil {
		return nil, fmt.Errorf("save chart: %w", err)
	}
	s.invalidate(ctx)
	return chart, nil
}

// DeleteChart 删除抽样表行
func (s *AQLService) DeleteChart(ctx context.Context, id string) error {
	if err := s.charts.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SeedDefaultCharts 抽样表为空时写入标准 General II 表，返回写入行数
func (s *AQLService) SeedDefaultCharts(ctx context.Context) (int, error) {
	count, err := s.charts.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count charts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	standard := quality.StandardGeneralII()
	charts := make([]entity.AQLChart, 0, len(standard))
	for _, r := range standard {
		charts = append(charts, entity.AQLChart{
			ID:               uuid.New().String(),
			InspectionType:   r.InspectionType,
			Level:            r.Level,
			SampleSizeLetter: r.Letter,
			SampleSize:       r.SampleSize,
			LotSizeMin:       r.LotSize.Min,
			LotSizeMax:       r.LotSize.Max,
			Entries:          entity.AQLEntries(r.Entries),
		})
	}
	if err := s.charts.BatchCreate(ctx, charts); err != nil {
		return 0, fmt.Errorf("seed charts: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("seeded default AQL charts", zap.Int("rows", len(charts)))
	return len(charts), nil
}

// chartRows 读取 General/II 行，优先走 Redis 缓存
func (s *AQLService) chartRows(ctx context.Context) ([]quality.ChartRow, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, chartCacheKey).Result()
		if err == nil {
			var rows []quality.ChartRow
			if jsonErr := json.Unmarshal([]byte(cached), &rows); jsonErr == nil {
				return rows, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("aql chart cache read failed", zap.Error(err))
		}
	}

	charts, err := s.charts.List(ctx, quality.InspectionTypeGeneral, quality.InspectionLevelII)
	if err != nil {
		return nil, fmt.Errorf("load charts: %w", err)
	}
	rows := make([]quality.ChartRow, 0, len(charts))
	for _, c := range charts {
		rows = append(rows, c.Row())
	}

	if s.rdb != nil && len(rows) > 0 {
		if data, err := json.Marshal(rows); err == nil {
			if err := s.rdb.Set(ctx, chartCacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("aql chart cache write failed", zap.Error(err))
			}
		}
	}
	return rows, nil
}

func (s *AQLService) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, chartCacheKey).Err(); err != nil {
		s.logger.Warn("aql chart cache invalidate failed", zap.Error(err))
	}
}

// SettingsService QC设置
type SettingsService struct {
	repo SettingsStore
}

func NewSettingsService(repo SettingsStore) *SettingsService {
	return &SettingsService{repo: repo}
}

// GetFirstOutput 当前生效的首件数量
func (s *SettingsService) GetFirstOutput(ctx context.Context) (*entity.FirstOutputSetting, error) {
	return s.repo.LatestFirstOutput(ctx)
}

// SetFirstOutput 新增一条设置，最新一条生效
func (s *SettingsService) SetFirstOutput(ctx context.Context, quantity int, userID string) (*entity.FirstOutputSetting, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	setting := &entity.FirstOutputSetting{
		ID:        uuid.New().String(),
		Quantity:  quantity,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateFirstOutput(ctx, setting); err != nil {
		return nil, fmt.Errorf("save first output setting: %w", err)
	}
	return setting, nil
}
