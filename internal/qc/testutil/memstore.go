package testutil

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/minio/minio-go/v7"
)

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// MemReportStore 内存版 repository.ReportStore，读写都做深拷贝
type MemReportStore struct {
	mu      sync.Mutex
	reports map[string]*entity.InspectionReport
	order   []string
}

func NewMemReportStore() *MemReportStore {
	return &MemReportStore{reports: make(map[string]*entity.InspectionReport)}
}

func cloneReport(r *entity.InspectionReport) *entity.InspectionReport {
	data, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	var out entity.InspectionReport
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *MemReportStore) Create(_ context.Context, r *entity.InspectionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; ok {
		return repository.ErrDuplicate
	}
	if m.findByKey(repository.KeyOf(r)) != nil {
		return repository.ErrDuplicate
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.reports[r.ID] = cloneReport(r)
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MemReportStore) FindByID(_ context.Context, id string) (*entity.InspectionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneReport(r), nil
}

func (m *MemReportStore) FindOne(_ context.Context, key repository.ReportKey) (*entity.InspectionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.findByKey(key); r != nil {
		return cloneReport(r), nil
	}
	return nil, repository.ErrNotFound
}

// findByKey 调用方持有锁
func (m *MemReportStore) findByKey(key repository.ReportKey) *entity.InspectionReport {
	for _, id := range m.order {
		r := m.reports[id]
		if r.ReportType == key.ReportType && r.OrderNo == key.OrderNo && r.Color == key.Color &&
			r.WashStage == key.WashStage && r.FactoryName == key.FactoryName &&
			r.InspectorID == key.InspectorID && sameDay(r.InspectionDate, key.InspectionDate) {
			return r
		}
	}
	return nil
}

func (m *MemReportStore) FindAll(_ context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionReport, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []entity.InspectionReport
	for _, id := range m.order {
		r := m.reports[id]
		if v := filters["order_no"]; v != "" && r.OrderNo != v {
			continue
		}
		if v := filters["color"]; v != "" && r.Color != v {
			continue
		}
		if v := filters["status"]; v != "" && r.Status != v {
			continue
		}
		if v := filters["report_type"]; v != "" && r.ReportType != v {
			continue
		}
		if v := filters["factory_name"]; v != "" && r.FactoryName != v {
			continue
		}
		if v := filters["inspector_id"]; v != "" && r.InspectorID != v {
			continue
		}
		if v := filters["overall_final_result"]; v != "" && r.OverallFinalResult != v {
			continue
		}
		matched = append(matched, *cloneReport(r))
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []entity.InspectionReport{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemReportStore) FindForWashQty(_ context.Context, match repository.WashQtyMatch) ([]entity.InspectionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.InspectionReport
	for _, id := range m.order {
		r := m.reports[id]
		if r.OrderNo == match.OrderNo && r.ReportType == match.ReportType &&
			r.FactoryName == match.FactoryName && sameDay(r.InspectionDate, match.Day) {
			out = append(out, *cloneReport(r))
		}
	}
	return out, nil
}

func (m *MemReportStore) Mutate(_ context.Context, id string, fn func(*entity.InspectionReport) error) (*entity.InspectionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneReport(r)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	m.reports[id] = cloneReport(working)
	return working, nil
}

// MemChartStore 内存版抽样表存储
type MemChartStore struct {
	mu     sync.Mutex
	charts map[string]entity.AQLChart
}

func NewMemChartStore() *MemChartStore {
	return &MemChartStore{charts: make(map[string]entity.AQLChart)}
}

func (m *MemChartStore) List(_ context.Context, inspectionType, level string) ([]entity.AQLChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.AQLChart{}
	for _, c := range m.charts {
		if (inspectionType == "" || c.InspectionType == inspectionType) && (level == "" || c.Level == level) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleSize < out[j].SampleSize })
	return out, nil
}

func (m *MemChartStore) FindByID(_ context.Context, id string) (*entity.AQLChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *MemChartStore) Save(_ context.Context, chart *entity.AQLChart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charts[chart.ID] = *chart
	return nil
}

func (m *MemChartStore) BatchCreate(_ context.Context, charts []entity.AQLChart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range charts {
		m.charts[c.ID] = c
	}
	return nil
}

func (m *MemChartStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.charts, id)
	return nil
}

func (m *MemChartStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.charts)), nil
}

// MemSettingsStore 内存版首件数量设置，最新的在末尾
type MemSettingsStore struct {
	mu       sync.Mutex
	settings []entity.FirstOutputSetting
}

func (m *MemSettingsStore) LatestFirstOutput(context.Context) (*entity.FirstOutputSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.settings) == 0 {
		return nil, repository.ErrNotFound
	}
	s := m.settings[len(m.settings)-1]
	return &s, nil
}

func (m *MemSettingsStore) CreateFirstOutput(_ context.Context, s *entity.FirstOutputSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = append(m.settings, *s)
	return nil
}

// MemWashQtyStore 内存版实际洗水数量，按 (日期, QC, 款号, 颜色) 去重
type MemWashQtyStore struct {
	mu   sync.Mutex
	rows map[string]entity.RealWashQty
	keys []string
}

func NewMemWashQtyStore() *MemWashQtyStore {
	return &MemWashQtyStore{rows: make(map[string]entity.RealWashQty)}
}

func (m *MemWashQtyStore) Upsert(_ context.Context, row *entity.RealWashQty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := row.InspectionDate.Format("2006-01-02") + "|" + row.QCID + "|" + row.StyleNo + "|" + row.Color
	if existing, ok := m.rows[key]; ok {
		row.ID = existing.ID
	} else {
		m.keys = append(m.keys, key)
	}
	m.rows[key] = *row
	return nil
}

func (m *MemWashQtyStore) FindAll(context.Context, int, int, map[string]string) ([]entity.RealWashQty, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.RealWashQty, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.rows[k])
	}
	return out, int64(len(out)), nil
}

// MemObjectStore 记录 PutObject 调用
type MemObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

func (f *MemObjectStore) PutObject(_ context.Context, bucket, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Objects == nil {
		f.Objects = make(map[string][]byte)
		f.Types = make(map[string]string)
	}
	f.Objects[objectName] = data
	f.Types[objectName] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: objectName, Size: int64(len(data))}, nil
}
