package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReport(orderNo, color string, day time.Time) *entity.InspectionReport {
	return &entity.InspectionReport{
		ID:             uuid.New().String(),
		ReportType:     entity.ReportTypeInline,
		OrderNo:        orderNo,
		Color:          color,
		WashStage:      quality.WashStageAfterWash,
		FactoryName:    "YM",
		InspectorID:    "qc-001",
		InspectionDate: day,
		Status:         entity.ReportStatusProcessing,
	}
}

func TestReportRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()
	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	report := newReport("GPAR1001", "BLACK", day)
	report.MeasurementDetails.Measurement = []quality.MeasurementDetail{{Size: "M", KValue: "K1", WashStage: quality.WashStageAfterWash, Qty: 1}}
	require.NoError(t, repos.Report.Create(ctx, report))
	require.NoError(t, repos.Report.Create(ctx, newReport("GPAR1001", "NAVY", day)))
	require.NoError(t, repos.Report.Create(ctx, newReport("GPAR1001", "BLACK", day.AddDate(0, 0, 1))))

	t.Run("CreateDuplicateKey", func(t *testing.T) {
		err := repos.Report.Create(ctx, newReport("GPAR1001", "BLACK", day))
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("FindByID", func(t *testing.T) {
		got, err := repos.Report.FindByID(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, "GPAR1001", got.OrderNo)
		require.Len(t, got.MeasurementDetails.Measurement, 1)
		assert.Equal(t, "M", got.MeasurementDetails.Measurement[0].Size)

		_, err = repos.Report.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("FindOne", func(t *testing.T) {
		got, err := repos.Report.FindOne(ctx, repository.ReportKey{
			ReportType: entity.ReportTypeInline, OrderNo: "GPAR1001", Color: "BLACK",
			WashStage: quality.WashStageAfterWash, FactoryName: "YM", InspectorID: "qc-001",
			InspectionDate: day.Add(15 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)

		_, err = repos.Report.FindOne(ctx, repository.ReportKey{OrderNo: "GPAR1001", InspectionDate: day})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("FindAll", func(t *testing.T) {
		items, total, err := repos.Report.FindAll(ctx, 1, 2, map[string]string{"order_no": "GPAR1001"})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, items, 2)

		_, total, err = repos.Report.FindAll(ctx, 1, 20, map[string]string{"color": "NAVY"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("FindForWashQty", func(t *testing.T) {
		items, err := repos.Report.FindForWashQty(ctx, repository.WashQtyMatch{
			ReportType: entity.ReportTypeInline, FactoryName: "YM", OrderNo: "GPAR1001", Day: day,
		})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("Mutate", func(t *testing.T) {
		// 并发读-改-写不丢失更新
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repos.Report.Mutate(ctx, report.ID, func(r *entity.InspectionReport) error {
					r.CheckedQty++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		got, err := repos.Report.FindByID(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.CheckedQty)

		boom := errors.New("boom")
		_, err = repos.Report.Mutate(ctx, report.ID, func(r *entity.InspectionReport) error {
			r.CheckedQty = 100
			return boom
		})
		assert.ErrorIs(t, err, boom)
		got, _ = repos.Report.FindByID(ctx, report.ID)
		assert.Equal(t, 5, got.CheckedQty, "failed mutation must not persist")

		_, err = repos.Report.Mutate(ctx, "missing", func(*entity.InspectionReport) error { return nil })
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestReferenceRepositories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	t.Run("AQLChart", func(t *testing.T) {
		max := 90
		charts := []entity.AQLChart{
			{ID: uuid.New().String(), InspectionType: quality.InspectionTypeGeneral, Level: quality.InspectionLevelII,
				SampleSize: 20, LotSizeMin: 51, LotSizeMax: &max, Entries: entity.AQLEntries{{Level: 1.5, AcceptDefect: 0, RejectDefect: 1}}},
			{ID: uuid.New().String(), InspectionType: quality.InspectionTypeGeneral, Level: quality.InspectionLevelII,
				SampleSize: 13, LotSizeMin: 26, Entries: entity.AQLEntries{{Level: 1.5, AcceptDefect: 0, RejectDefect: 1}}},
		}
		require.NoError(t, repos.AQLChart.BatchCreate(ctx, charts))

		n, err := repos.AQLChart.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		list, err := repos.AQLChart.List(ctx, quality.InspectionTypeGeneral, quality.InspectionLevelII)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 13, list[0].SampleSize)
		assert.Nil(t, list[0].LotSizeMax)
		require.NotNil(t, list[1].LotSizeMax)
		assert.Equal(t, 90, *list[1].LotSizeMax)

		charts[0].SampleSize = 32
		require.NoError(t, repos.AQLChart.Save(ctx, &charts[0]))
		got, err := repos.AQLChart.FindByID(ctx, charts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 32, got.SampleSize)
		assert.Equal(t, 1.5, got.Entries[0].Level)

		require.NoError(t, repos.AQLChart.Delete(ctx, charts[0].ID))
		assert.ErrorIs(t, repos.AQLChart.Delete(ctx, charts[0].ID), repository.ErrNotFound)
	})

	t.Run("Settings", func(t *testing.T) {
		_, err := repos.Settings.LatestFirstOutput(ctx)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		now := time.Now()
		require.NoError(t, repos.Settings.CreateFirstOutput(ctx, &entity.FirstOutputSetting{ID: uuid.New().String(), Quantity: 20, CreatedAt: now.Add(-time.Minute)}))
		require.NoError(t, repos.Settings.CreateFirstOutput(ctx, &entity.FirstOutputSetting{ID: uuid.New().String(), Quantity: 60, CreatedAt: now}))
		latest, err := repos.Settings.LatestFirstOutput(ctx)
		require.NoError(t, err)
		assert.Equal(t, 60, latest.Quantity)
	})

	t.Run("WashQtyUpsert", func(t *testing.T) {
		day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		row := &entity.RealWashQty{ID: uuid.New().String(), InspectionDate: day, QCID: "QC1", StyleNo: "GPAR1001", Color: "黑色[BLACK]", WashQty: 300}
		require.NoError(t, repos.WashQty.Upsert(ctx, row))
		again := &entity.RealWashQty{ID: uuid.New().String(), InspectionDate: day, QCID: "QC1", StyleNo: "GPAR1001", Color: "黑色[BLACK]", WashQty: 320}
		require.NoError(t, repos.WashQty.Upsert(ctx, again))

		items, total, err := repos.WashQty.FindAll(ctx, 1, 20, map[string]string{"style_no": "GPAR1001"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, 320, items[0].WashQty)
	})
}
