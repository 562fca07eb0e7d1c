package service

import (
	"context"
	"sync"
	"testing"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/testutil"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/shared/feishu"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []sse.ReportUpdate
}

func (p *recordingPublisher) PublishReportUpdate(u sse.ReportUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.updates))
	for _, u := range p.updates {
		out = append(out, u.Action)
	}
	return out
}

type recordingNotifier struct {
	failed []string
}

func (n *recordingNotifier) NotifyReportFailed(_ context.Context, r *entity.InspectionReport) {
	n.failed = append(n.failed, r.ID)
}

type fakeCardSender struct {
	chatID string
	cards  []feishu.InteractiveCard
	err    error
}

func (f *fakeCardSender) SendCard(_ context.Context, chatID string, card feishu.InteractiveCard) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.chatID = chatID
	f.cards = append(f.cards, card)
	return "om_test", nil
}

// testEnv 使用标准抽样表的内存服务集合
type testEnv struct {
	reports   *testutil.MemReportStore
	charts    *testutil.MemChartStore
	settings  *testutil.MemSettingsStore
	washQty   *testutil.MemWashQtyStore
	events    *recordingPublisher
	notifier  *recordingNotifier
	aql       *AQLService
	report    *ReportService
	washSvc   *WashQtyService
	exportSvc *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		reports:  testutil.NewMemReportStore(),
		charts:   testutil.NewMemChartStore(),
		settings: &testutil.MemSettingsStore{},
		washQty:  testutil.NewMemWashQtyStore(),
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
	}
	buyers := quality.DefaultBuyerTable()
	env.aql = NewAQLService(env.charts, env.settings, nil, 0, buyers, nil)
	n, err := env.aql.SeedDefaultCharts(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(quality.StandardGeneralII()), n)

	env.report = NewReportService(env.reports, env.aql, buyers, env.events, env.notifier, nil)
	env.washSvc = NewWashQtyService(env.washQty, env.reports, env.aql, buyers, nil)
	env.exportSvc = NewExportService(env.reports)
	return env
}

func pt(name, measured, spec string) quality.MeasurementPoint {
	return quality.MeasurementPoint{
		PointName:      name,
		Spec:           quality.NumberString(spec),
		ToleranceMinus: quality.NumberString("-0.25"),
		TolerancePlus:  quality.NumberString("0.25"),
		Measured:       quality.NumberString(measured),
	}
}
