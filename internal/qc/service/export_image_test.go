package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	report, err := env.report.SaveOrderData(ctx, inspector, orderRequest())
	require.NoError(t, err)
	_, err = env.report.SaveMeasurement(ctx, report.ID, inspector, measurementRequest("10.5"))
	require.NoError(t, err)

	f, filename, err := env.exportSvc.ExportReport(ctx, report.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "QC_GPAR1001_BLACK_2025-07-01.xlsx", filename)
	assert.Equal(t, []string{"Summary", "Measurements"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	values := make(map[string]string)
	for _, r := range rows {
		if len(r) == 2 {
			values[r[0]] = r[1]
		}
	}
	assert.Equal(t, "GPAR1001", values["Order No"])
	assert.Equal(t, "80", values["Sample Size"])
	assert.Equal(t, "75", values["Pass Rate %"])
	assert.Equal(t, quality.OutcomeFail, values["Overall Result"])

	rows, err = f.GetRows("Measurements")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"M", "K1", quality.WashStageAfterWash, "2", "4", "3", "1", "1", "0", "75"}, rows[1])

	_, _, err = env.exportSvc.ExportReport(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestImageUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	report, err := env.report.SaveOrderData(ctx, inspector, orderRequest())
	require.NoError(t, err)

	unavailable := NewImageService(nil, "qc-images", env.reports)
	_, err = unavailable.Upload(ctx, report.ID, "a.png", "image/png", 3, strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	store := &testutil.MemObjectStore{}
	svc := NewImageService(store, "qc-images", env.reports)

	_, err = svc.Upload(ctx, report.ID, "a.pdf", "application/pdf", 3, strings.NewReader("pdf"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Upload(ctx, report.ID, "big.png", "image/png", MaxImageSize+1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Upload(ctx, "missing", "a.png", "image/png", 3, strings.NewReader("png"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	data := []byte("fake-jpeg")
	res, err := svc.Upload(ctx, report.ID, "stain.jpeg", "image/jpeg; charset=binary", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ObjectKey, "inspections/"+report.ID+"/"))
	assert.True(t, strings.HasSuffix(res.ObjectKey, ".jpeg"))
	assert.Equal(t, data, store.Objects[res.ObjectKey])
	assert.Equal(t, "image/jpeg", store.Types[res.ObjectKey])

	stored, err := env.report.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ImageList{res.ObjectKey}, stored.Images)
}

func TestFeishuNotifier(t *testing.T) {
	sender := &fakeCardSender{}
	n := NewFeishuNotifier(sender, "oc_qc", nil).WithDetailURL("https://qc.example.com/reports")

	report := &entity.InspectionReport{
		ID:      "r-1",
		OrderNo: "GPAR1001",
		OverallSummary: &entity.OverallSummary{OverallSummary: quality.OverallSummary{
			Disposition:  quality.Disposition{PassRate: 80, OverallFinalResult: quality.OutcomeFail},
			DefectResult: quality.OutcomePass,
		}},
	}
	n.NotifyReportFailed(context.Background(), report)
	require.Len(t, sender.cards, 1)
	assert.Equal(t, "oc_qc", sender.chatID)

	var hasButton bool
	for _, el := range sender.cards[0].Elements {
		for _, a := range el.Actions {
			if a.URL == "https://qc.example.com/reports/r-1" {
				hasButton = true
			}
		}
	}
	assert.True(t, hasButton)

	// 发送失败不向上返回
	failing := NewFeishuNotifier(&fakeCardSender{err: errors.New("boom")}, "oc_qc", nil)
	failing.NotifyReportFailed(context.Background(), report)
}
