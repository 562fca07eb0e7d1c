package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MaxImageSize 单张图片上限
const MaxImageSize = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore 对象存储，*minio.Client 满足此接口
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImageService 检验图片上传
type ImageService struct {
	store   ObjectStore
	bucket  string
	reports repository.ReportStore
}

func NewImageService(store ObjectStore, bucket string, reports repository.ReportStore) *ImageService {
	return &ImageService{store: store, bucket: bucket, reports: reports}
}

// UploadResult 上传结果
type UploadResult struct {
	ObjectKey string `json:"object_key"`
	Size      int64  `json:"size"`
}

// Upload 上传图片并追加到报告的图片列表，返回对象键
func (s *ImageService) Upload(ctx context.Context, reportID, filename, contentType string, size int64, reader io.Reader) (*UploadResult, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return nil, fmt.Errorf("%w: image size must be between 1 byte and 10MB", ErrInvalidInput)
	}
	if fe := strings.ToLower(path.Ext(filename)); fe == ".jpeg" || fe == ".jpg" {
		ext = fe
	}

	// 先确认报告存在
	if _, err := s.reports.FindByID(ctx, reportID); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("inspections/%s/%s%s", reportID, uuid.New().String(), ext)
	_, err := s.store.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	if _, err := s.reports.Mutate(ctx, reportID, func(r *entity.InspectionReport) error {
		r.Images = append(r.Images, objectName)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("attach image: %w", err)
	}
	return &UploadResult{ObjectKey: objectName, Size: size}, nil
}
