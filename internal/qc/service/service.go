package service

import (
	"context"
	"errors"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/config"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/shared/feishu"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadySubmitted 报告已提交，不能重复提交
	ErrAlreadySubmitted = errors.New("report already submitted")
	// ErrInvalidDefectDetails 不良件数大于检验数
	ErrInvalidDefectDetails = errors.New("invalid defect details")
	// ErrStorageUnavailable 未配置对象存储
	ErrStorageUnavailable = errors.New("object storage unavailable")
)

// ChartStore AQL抽样表存储
type ChartStore interface {
	List(ctx context.Context, inspectionType, level string) ([]entity.AQLChart, error)
	FindByID(ctx context.Context, id string) (*entity.AQLChart, error)
	Save(ctx context.Context, chart *entity.AQLChart) error
	BatchCreate(ctx context.Context, charts []entity.AQLChart) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// SettingsStore QC设置存储
type SettingsStore interface {
	LatestFirstOutput(ctx context.Context) (*entity.FirstOutputSetting, error)
	CreateFirstOutput(ctx context.Context, setting *entity.FirstOutputSetting) error
}

// WashQtyStore 实际洗水数量存储
type WashQtyStore interface {
	Upsert(ctx context.Context, row *entity.RealWashQty) error
	FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RealWashQty, int64, error)
}

// EventPublisher 报告变更推送
type EventPublisher interface {
	PublishReportUpdate(update sse.ReportUpdate)
}

// Notifier 检验不合格通知，失败只记录日志
type Notifier interface {
	NotifyReportFailed(ctx context.Context, report *entity.InspectionReport)
}

// Services 服务集合
type Services struct {
	AQL      *AQLService
	Settings *SettingsService
	Report   *ReportService
	WashQty  *WashQtyService
	Export   *ExportService
	Image    *ImageService
}

// NewServices 创建服务集合，未配置飞书或 MinIO 时对应功能降级
func NewServices(repos *repository.Repositories, rdb *redis.Client, hub *sse.Hub, cfg *config.Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 飞书通知，未配置时不发送
	var notifier Notifier = noopNotifier{}
	if cfg.Feishu.AppID != "" && cfg.Feishu.AppSecret != "" && cfg.Feishu.QCChatID != "" {
		var opts []feishu.Option
		if cfg.Feishu.BaseURL != "" {
			opts = append(opts, feishu.WithBaseURL(cfg.Feishu.BaseURL))
		}
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, opts...)
		notifier = NewFeishuNotifier(client, cfg.Feishu.QCChatID, logger).WithDetailURL(cfg.Feishu.ReportURL)
	}

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio init failed, image upload disabled", zap.Error(err))
			minioClient = nil
		}
	}

	var events EventPublisher
	if hub != nil {
		events = hub
	}

	buyers := cfg.Quality.BuyerTable()
	aqlSvc := NewAQLService(repos.AQLChart, repos.Settings, rdb, cfg.Redis.ChartTTL, buyers, logger)
	reportSvc := NewReportService(repos.Report, aqlSvc, buyers, events, notifier, logger)

	var store ObjectStore
	if minioClient != nil {
		store = minioClient
	}

	return &Services{
		AQL:      aqlSvc,
		Settings: NewSettingsService(repos.Settings),
		Report:   reportSvc,
		WashQty:  NewWashQtyService(repos.WashQty, repos.Report, aqlSvc, buyers, logger),
		Export:   NewExportService(repos.Report),
		Image:    NewImageService(store, cfg.MinIO.Bucket, repos.Report),
	}
}

type noopNotifier struct{}

func (noopNotifier) NotifyReportFailed(context.Context, *entity.InspectionReport) {}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
