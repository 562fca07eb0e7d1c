package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
)

// FirestoreReportStore 检验报告存储（Firestore 文档库）。
// 文档字段与报告的 JSON 字段一致，另存 created_at_ts / inspection_day 供排序和按日查询。
// gorm 自动维护 created_at/updated_at，Firestore 需要自行写入。
type FirestoreReportStore struct {
	Client     *firestore.Client
	Collection string
	now        func() time.Time
}

var _ ReportStore = (*FirestoreReportStore)(nil)

func NewFirestoreReportStore(client *firestore.Client) *FirestoreReportStore {
	return &FirestoreReportStore{Client: client, Collection: "qc_inspection_reports", now: time.Now}
}

func (s *FirestoreReportStore) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// stampCreate 未设置 CreatedAt 时补当前时间
func (s *FirestoreReportStore) stampCreate(report *entity.InspectionReport) {
	now := s.clock()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
}

func (s *FirestoreReportStore) col() *firestore.CollectionRef {
	return s.Client.Collection(s.Collection)
}

// reportFilterFields 列表筛选参数 → 文档字段
var reportFilterFields = map[string]string{
	"order_no":             "order_no",
	"color":                "color",
	"status":               "status",
	"report_type":          "report_type",
	"factory_name":         "factory_name",
	"inspector_id":         "inspector_id",
	"overall_final_result": "overall_final_result",
}

func (s *FirestoreReportStore) Create(ctx context.Context, report *entity.InspectionReport) error {
	if s.Client == nil {
		return errors.New("firestore client is nil")
	}
	s.stampCreate(report)
	data, err := reportToDoc(report)
	if err != nil {
		return err
	}
	// 事务内先按自然键查询，并发的首次保存只有一个能建成
	err = s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(s.keyQuery(KeyOf(report))).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return ErrDuplicate
		}
		return tx.Create(s.col().Doc(report.ID), data)
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("report %s: %w", report.ID, ErrDuplicate)
	}
	return err
}

func (s *FirestoreReportStore) keyQuery(key ReportKey) firestore.Query {
	return s.col().
		Where("report_type", "==", key.ReportType).
		Where("order_no", "==", key.OrderNo).
		Where("color", "==", key.Color).
		Where("before_after_wash", "==", key.WashStage).
		Where("factory_name", "==", key.FactoryName).
		Where("inspector_id", "==", key.InspectorID).
		Where("inspection_day", "==", key.InspectionDate.Format(dayLayout)).
		Limit(1)
}

func (s *FirestoreReportStore) FindByID(ctx context.Context, id string) (*entity.InspectionReport, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	snap, err := s.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return docToReport(snap)
}

func (s *FirestoreReportStore) FindOne(ctx context.Context, key ReportKey) (*entity.InspectionReport, error) {
	docs, err := s.keyQuery(key).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docToReport(docs[0])
}

func (s *FirestoreReportStore) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionReport, int64, error) {
	q := s.col().Query
	for param, field := range reportFilterFields {
		if v := filters[param]; v != "" {
			q = q.Where(field, "==", v)
		}
	}

	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if v, ok := res["total"].(*firestorepb.Value); ok {
		total = v.GetIntegerValue()
	}

	it := q.OrderBy("created_at_ts", firestore.Desc).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Documents(ctx)
	defer it.Stop()

	var items []entity.InspectionReport
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		report, err := docToReport(snap)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *report)
	}
	return items, total, nil
}

func (s *FirestoreReportStore) FindForWashQty(ctx context.Context, match WashQtyMatch) ([]entity.InspectionReport, error) {
	q := s.col().
		Where("order_no", "==", match.OrderNo).
		Where("inspection_day", "==", match.Day.Format(dayLayout))
	if match.ReportType != "" {
		q = q.Where("report_type", "==", match.ReportType)
	}
	if match.FactoryName != "" {
		q = q.Where("factory_name", "==", match.FactoryName)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	items := make([]entity.InspectionReport, 0, len(docs))
	for _, snap := range docs {
		report, err := docToReport(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, *report)
	}
	return items, nil
}

// Mutate 在 Firestore 事务内读-改-写，冲突时由客户端重试整个函数
func (s *FirestoreReportStore) Mutate(ctx context.Context, id string, fn func(report *entity.InspectionReport) error) (*entity.InspectionReport, error) {
	ref := s.col().Doc(id)
	var out *entity.InspectionReport
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		report, err := docToReport(snap)
		if err != nil {
			return err
		}
		if err := fn(report); err != nil {
			return err
		}
		report.UpdatedAt = s.clock()
		data, err := reportToDoc(report)
		if err != nil {
			return err
		}
		out = report
		return tx.Set(ref, data)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const dayLayout = "2006-01-02"

func reportToDoc(report *entity.InspectionReport) (map[string]interface{}, error) {
	b, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	delete(data, "id")
	data["created_at_ts"] = report.CreatedAt.UTC()
	data["inspection_day"] = report.InspectionDate.Format(dayLayout)
	return data, nil
}

func docToReport(snap *firestore.DocumentSnapshot) (*entity.InspectionReport, error) {
	return reportFromData(snap.Ref.ID, snap.Data())
}

func reportFromData(id string, data map[string]interface{}) (*entity.InspectionReport, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", id, err)
	}
	var report entity.InspectionReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	report.ID = id
	return &report, nil
}
