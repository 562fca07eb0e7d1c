package quality

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleRows() []ChartRow {
	entries := func(a15, r15, a25, r25 int) []AQLEntry {
		return []AQLEntry{
			{Level: 1.0, AcceptDefect: a15 - 1, RejectDefect: a15},
			{Level: 1.5, AcceptDefect: a15, RejectDefect: r15},
			{Level: 2.5, AcceptDefect: a25, RejectDefect: r25},
			{Level: 4.0, AcceptDefect: a25 + 2, RejectDefect: r25 + 2},
		}
	}
	return []ChartRow{
		{InspectionType: "General", Level: "II", SampleSize: 125, LotSize: LotSizeRange{Min: 1201, Max: intPtr(3200)}, Entries: entries(5, 6, 7, 8)},
		{InspectionType: "General", Level: "II", SampleSize: 50, LotSize: LotSizeRange{Min: 281, Max: intPtr(500)}, Entries: entries(2, 3, 3, 4)},
		{InspectionType: "General", Level: "II", SampleSize: 80, LotSize: LotSizeRange{Min: 501, Max: intPtr(1200)}, Entries: entries(3, 4, 5, 6)},
		{InspectionType: "General", Level: "II", SampleSize: 200, LotSize: LotSizeRange{Min: 3201}, Entries: entries(7, 8, 10, 11)},
		{InspectionType: "Special", Level: "S-4", SampleSize: 60, LotSize: LotSizeRange{Min: 0}, Entries: entries(9, 10, 11, 12)},
	}
}

func TestResolveBuyerPatternOrder(t *testing.T) {
	table := DefaultBuyerTable()

	cases := map[string]string{
		"MO-COM-1234": "MWW",
		"GPCO2391":    "Costco",
		"GPAR10023":   "Aritzia",
		"PTRT5521":    "Reitmans",
		"PTAF0098":    "ANF",
		"GPNT1111":    "STORI",
		"YMCMH2201":   "Elite",
		"YMCMT2201":   "Elite",
		"PT12345":     "Other",
		"gpco2391":    "Other",
		"":            "Other",
	}
	for mo, want := range cases {
		assert.Equal(t, want, table.ResolveBuyer(mo), "mo=%q", mo)
	}
}

func TestResolveAQLLevel(t *testing.T) {
	table := DefaultBuyerTable()

	assert.Equal(t, 2.5, table.ResolveAQLLevel("MWW"))
	assert.Equal(t, 4.0, table.ResolveAQLLevel("Reitmans"))
	assert.Equal(t, 1.5, table.ResolveAQLLevel("aritzia"))
	assert.Equal(t, 1.5, table.ResolveAQLLevel("A & F"))
	assert.Equal(t, 1.5, table.ResolveAQLLevel("A&F Kids"))
	assert.Equal(t, 1.5, table.ResolveAQLLevel("ANF"))
	assert.Equal(t, 1.0, table.ResolveAQLLevel("COSCO"))
	assert.Equal(t, 1.0, table.ResolveAQLLevel("STORI"))
	assert.Equal(t, 1.0, table.ResolveAQLLevel(""))

	// Costco 不包含 "COSCO" 关键字，走默认等级
	assert.Equal(t, DefaultAQLLevel, table.ResolveAQLLevel(table.ResolveBuyer("GPCO2391")))
}

func TestCustomBuyerTable(t *testing.T) {
	table := NewBuyerTable(
		[]BuyerRule{{Pattern: "ZZ", Buyer: "Zeta"}},
		[]LevelRule{{Keywords: []string{"zeta"}, Level: 2.5}},
	)
	assert.Equal(t, "Zeta", table.ResolveBuyer("MO-ZZ-1"))
	assert.Equal(t, "Other", table.ResolveBuyer("MO-COM-1"))
	assert.Equal(t, 2.5, table.ResolveAQLLevel("Zeta"))

	fallback := NewBuyerTable(nil, nil)
	assert.Equal(t, "MWW", fallback.ResolveBuyer("COM1"))
}

func TestResolveAQLBySampleSize(t *testing.T) {
	res, err := ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{SampleSize: 60, Buyer: "Aritzia"})
	require.NoError(t, err)
	assert.Equal(t, AQLResult{SampleSize: 80, AcceptedDefect: 3, RejectedDefect: 4, LevelUsed: 1.5}, res)

	res, err = ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{SampleSize: 50, Buyer: "MWW"})
	require.NoError(t, err)
	assert.Equal(t, 50, res.SampleSize)
	assert.Equal(t, 2.5, res.LevelUsed)

	_, err = ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{SampleSize: 500, Buyer: "MWW"})
	assert.True(t, errors.Is(err, ErrChartNotFound))
	assert.Contains(t, err.Error(), "sample size of 500 or greater")
}

func TestResolveAQLByLotSize(t *testing.T) {
	res, err := ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{LotSize: 1200, Buyer: "Reitmans"})
	require.NoError(t, err)
	assert.Equal(t, AQLResult{SampleSize: 80, AcceptedDefect: 7, RejectedDefect: 8, LevelUsed: 4.0}, res)

	res, err = ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{LotSize: 99999, Buyer: "Other"})
	require.NoError(t, err)
	assert.Equal(t, 200, res.SampleSize, "unbounded max covers any large lot")

	_, err = ResolveAQL(sampleRows(), DefaultBuyerTable(), AQLQuery{LotSize: 100, Buyer: "Other"})
	assert.True(t, errors.Is(err, ErrChartNotFound))
}

func TestResolveAQLLevelMissing(t *testing.T) {
	rows := []ChartRow{{
		InspectionType: "General", Level: "II", SampleSize: 32,
		LotSize: LotSizeRange{Min: 151, Max: intPtr(280)},
		Entries: []AQLEntry{{Level: 1.0, AcceptDefect: 0, RejectDefect: 1}},
	}}
	_, err := ResolveAQL(rows, DefaultBuyerTable(), AQLQuery{LotSize: 200, Buyer: "MWW"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLevelNotFound))
	assert.Contains(t, err.Error(), "AQL level 2.5 not found")
}

func TestChartRowValidate(t *testing.T) {
	row := sampleRows()[0]
	require.NoError(t, row.Validate())

	dup := row
	dup.Entries = append([]AQLEntry{}, row.Entries...)
	dup.Entries = append(dup.Entries, AQLEntry{Level: 2.5, AcceptDefect: 1, RejectDefect: 2})
	assert.ErrorIs(t, dup.Validate(), ErrInvalidChart)

	bad := row
	bad.Entries = []AQLEntry{{Level: 1.0, AcceptDefect: 3, RejectDefect: 3}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidChart)

	empty := row
	empty.LotSize = LotSizeRange{Min: 10, Max: intPtr(5)}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidChart)
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10.25", 10.25, true},
		{"-0.125", -0.125, true},
		{"1/2", 0.5, true},
		{"-3/8", -0.375, true},
		{"10 1/2", 10.5, true},
		{"10 1⁄4", 10.25, true},
		{"½", 0.5, true},
		{"1½", 1.5, true},
		{"-⅜", -0.375, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{"1/0", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseDecimal(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, "input %q", c.in)
		}
	}
}

func TestNumberJSON(t *testing.T) {
	var p MeasurementPoint
	require.NoError(t, json.Unmarshal([]byte(`{"specs":"10 1/2","tolerance_minus":-0.125,"tolerance_plus":"1/8","measured_value_decimal":null}`), &p))

	spec, ok := p.Spec.Float()
	require.True(t, ok)
	assert.Equal(t, 10.5, spec)
	assert.True(t, p.Measured.IsZero())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"specs":"10 1/2"`)
	assert.Contains(t, string(out), `"tolerance_minus":-0.125`)
	assert.Contains(t, string(out), `"measured_value_decimal":null`)
}

func point(measured, spec, minus, plus string) MeasurementPoint {
	return MeasurementPoint{
		PointName:      "Chest",
		Measured:       NumberString(measured),
		Spec:           NumberString(spec),
		ToleranceMinus: NumberString(minus),
		TolerancePlus:  NumberString(plus),
	}
}

func TestEvaluate(t *testing.T) {
	assert.Equal(t, ResultPass, Evaluate(point("10.2", "10", "-0.25", "0.25")).Result)
	assert.Equal(t, ResultFail, Evaluate(point("10.3", "10", "-0.25", "0.25")).Result)
	assert.Equal(t, ResultPass, Evaluate(point("9.75", "10", "-0.25", "0.25")).Result, "lower bound is inclusive")
	assert.Equal(t, ResultPass, Evaluate(point("10.25", "10", "-0.25", "0.25")).Result, "upper bound is inclusive")
	assert.Equal(t, ResultPass, Evaluate(point("10.3", "10.1", "0.2", "0.2")).Result, "positive minus magnitude is subtracted")
	assert.Equal(t, ResultFail, Evaluate(point("9.7", "10", "0.25", "0.25")).Result)

	ev := Evaluate(point("", "10", "-0.25", "0.25"))
	assert.Equal(t, ResultFail, ev.Result)
	assert.True(t, ev.Indeterminate)

	ev = Evaluate(point("10", "n/a", "-0.25", "0.25"))
	assert.Equal(t, ResultFail, ev.Result)
	assert.True(t, ev.Indeterminate)
}

func TestToleranceAttribution(t *testing.T) {
	plus, minus := ToleranceAttribution(point("10.3", "10", "-0.25", "0.25"))
	assert.True(t, plus)
	assert.False(t, minus)

	plus, minus = ToleranceAttribution(point("-0.5", "0", "-0.25", "0.25"))
	assert.False(t, plus)
	assert.True(t, minus)

	plus, minus = ToleranceAttribution(point("", "10", "-0.25", "0.25"))
	assert.False(t, plus)
	assert.False(t, minus)
}

func TestNormalizeWashStage(t *testing.T) {
	assert.Equal(t, "beforeWash", NormalizeWashStage("Before Wash"))
	assert.Equal(t, "afterIroning", NormalizeWashStage("After Ironing"))
	assert.Equal(t, "afterWash", NormalizeWashStage("After Wash"))
	assert.Equal(t, "inline", NormalizeWashStage("inline"))
}

func TestAggregateSize(t *testing.T) {
	detail := MeasurementDetail{
		Size: "M", KValue: "K1", WashStage: "Before Wash", Qty: 2,
		Pcs: []Piece{
			{PcNumber: 1, MeasurementPoints: []MeasurementPoint{
				withResult(point("10.2", "10", "-0.25", "0.25"), ResultPass),
				withResult(point("10.3", "10", "-0.25", "0.25"), ResultFail),
			}},
			{PcNumber: 2, MeasurementPoints: []MeasurementPoint{
				withResult(point("", "10", "-0.25", "0.25"), ResultFail),
				point("10", "10", "-0.25", "0.25"),
			}},
		},
	}

	s := AggregateSize(detail)
	assert.Equal(t, SizeSummary{
		Size: "M", KValue: "K1", WashStage: "beforeWash",
		CheckedPcs: 2, CheckedPoints: 4, TotalPass: 2, TotalFail: 2,
		PlusToleranceFailCount: 1, MinusToleranceFailCount: 0,
	}, s)
}

func TestAggregateSizeKeepsStoredResult(t *testing.T) {
	// 已存储的结果不因实测值而被静默改写
	detail := MeasurementDetail{Size: "S", KValue: "K", WashStage: "afterWash", Pcs: []Piece{
		{PcNumber: 1, MeasurementPoints: []MeasurementPoint{withResult(point("12", "10", "-0.25", "0.25"), ResultPass)}},
	}}
	s := AggregateSize(detail)
	assert.Equal(t, 1, s.TotalPass)

	ScorePoints(&detail, false)
	assert.Equal(t, ResultPass, detail.Pcs[0].MeasurementPoints[0].Result)
	ScorePoints(&detail, true)
	assert.Equal(t, ResultFail, detail.Pcs[0].MeasurementPoints[0].Result)
}

func withResult(p MeasurementPoint, r string) MeasurementPoint {
	p.Result = r
	return p
}

func TestDefectSummary(t *testing.T) {
	d := DefectDetails{
		CheckedQty: 50,
		DefectsByPc: []PieceDefects{
			{PcNumber: 1, Defects: []DefectItem{{Name: "Stain", Qty: 2}, {Name: "Broken stitch", Qty: 1}}},
			{PcNumber: 1, Defects: []DefectItem{{Name: "Stain", Qty: 1}}},
			{PcNumber: 4, Defects: []DefectItem{{Name: "Hole", Qty: 0}}},
			{PcNumber: 7, Defects: []DefectItem{{Name: "Shading", Qty: 1}}},
		},
	}
	s := SummarizeDefects(d, nil)
	assert.Equal(t, 2, s.RejectedPcs)
	assert.Equal(t, 5, s.TotalDefectCount)
	assert.Equal(t, OutcomeFail, s.Result, "zero tolerance without AQL")

	s = SummarizeDefects(d, &AQLResult{AcceptedDefect: 5, RejectedDefect: 6})
	assert.Equal(t, OutcomePass, s.Result)

	d.Result = OutcomePass
	s = SummarizeDefects(d, nil)
	assert.Equal(t, OutcomePass, s.Result, "entered outcome is used without AQL")

	s = SummarizeDefects(d, &AQLResult{AcceptedDefect: 0, RejectedDefect: 1})
	assert.Equal(t, OutcomeFail, s.Result, "AQL accept number wins over the entered outcome")

	assert.Equal(t, OutcomePass, DefectResult(0, nil))
}

func TestResolveOverallPassRateBoundary(t *testing.T) {
	pass := ResolveOverall(DispositionInput{
		SizeSummaries: []SizeSummary{{CheckedPoints: 100, TotalPass: 95, TotalFail: 5}},
		DefectResult:  OutcomePass,
	})
	assert.Equal(t, 95, pass.PassRate)
	assert.Equal(t, OutcomePass, pass.OverallFinalResult)

	fail := ResolveOverall(DispositionInput{
		SizeSummaries: []SizeSummary{{CheckedPoints: 100, TotalPass: 94, TotalFail: 6}},
		DefectResult:  OutcomePass,
	})
	assert.Equal(t, 94, fail.PassRate)
	assert.Equal(t, OutcomeFail, fail.OverallFinalResult)

	defectFail := ResolveOverall(DispositionInput{
		SizeSummaries: []SizeSummary{{CheckedPoints: 100, TotalPass: 100}},
		DefectResult:  OutcomeFail,
	})
	assert.Equal(t, OutcomeFail, defectFail.OverallFinalResult)
}

func TestResolveOverallEmpty(t *testing.T) {
	d := ResolveOverall(DispositionInput{DefectResult: OutcomePass})
	assert.Equal(t, 100, d.PassRate)
	assert.Equal(t, OutcomePass, d.OverallFinalResult)

	d = ResolveOverall(DispositionInput{DefectResult: OutcomeFail})
	assert.Equal(t, 100, d.PassRate)
	assert.Equal(t, OutcomeFail, d.OverallFinalResult)
}

func TestResolveOverallOverride(t *testing.T) {
	in := DispositionInput{
		SizeSummaries: []SizeSummary{{CheckedPoints: 10, TotalPass: 10}},
		DefectResult:  OutcomePass,
		Override:      OutcomeFail,
	}
	assert.Equal(t, OutcomeFail, ResolveOverall(in).OverallFinalResult)

	in.Override = "fail"
	assert.Equal(t, OutcomePass, ResolveOverall(in).OverallFinalResult, "only exact Pass/Fail overrides")
}

func TestSummarize(t *testing.T) {
	measurements := []MeasurementDetail{
		{Size: "M", KValue: "K1", WashStage: "beforeWash", Qty: 5, Pcs: []Piece{
			{PcNumber: 1, MeasurementPoints: []MeasurementPoint{point("10", "10", "-0.25", "0.25"), point("11", "10", "-0.25", "0.25")}},
		}},
		{Size: "L", KValue: "K1", WashStage: "beforeWash", Qty: 3, Pcs: []Piece{
			{PcNumber: 1, MeasurementPoints: []MeasurementPoint{point("12", "12", "-0.25", "0.25")}},
		}},
	}
	s := Summarize(SummaryInput{
		Measurements: measurements,
		Defects: DefectDetails{CheckedQty: 8, DefectsByPc: []PieceDefects{
			{PcNumber: 2, Defects: []DefectItem{{Name: "Stain", Qty: 1}}},
		}},
		AQL: &AQLResult{AcceptedDefect: 1, RejectedDefect: 2},
	})

	assert.Equal(t, 8, s.TotalCheckedPcs)
	assert.Equal(t, 3, s.TotalCheckedPoint)
	assert.Equal(t, 2, s.TotalPass)
	assert.Equal(t, 67, s.PassRate)
	assert.Equal(t, 1, s.RejectedDefectPcs)
	assert.Equal(t, 12.5, s.DefectRate)
	assert.Equal(t, 12.5, s.DefectRatio)
	assert.Equal(t, OutcomePass, s.DefectResult)
	assert.Equal(t, OutcomeFail, s.OverallFinalResult)

	empty := Summarize(SummaryInput{})
	assert.Equal(t, 0.0, empty.DefectRate)
	assert.Equal(t, 100, empty.PassRate)
	assert.Equal(t, OutcomePass, empty.OverallFinalResult)
}

func TestSummarizeZeroDefects(t *testing.T) {
	in := SummaryInput{
		SizeSummaries: []SizeSummary{{CheckedPoints: 20, TotalPass: 20}},
		Defects: DefectDetails{CheckedQty: 80, DefectsByPc: []PieceDefects{
			{PcNumber: 3, Defects: []DefectItem{{Name: "Stain", Qty: 1}}},
		}},
		AQL: &AQLResult{SampleSize: 80, AcceptedDefect: 2, RejectedDefect: 3},
	}
	assert.Equal(t, OutcomePass, Summarize(in).OverallFinalResult)

	in.ZeroDefects = true
	s := Summarize(in)
	assert.Equal(t, OutcomeFail, s.OverallFinalResult, "one defect fails a zero-defect report")
	assert.Equal(t, OutcomePass, s.DefectResult, "AQL defect result is still reported")

	in.Defects.DefectsByPc = nil
	assert.Equal(t, OutcomePass, Summarize(in).OverallFinalResult)

	in.SizeSummaries = []SizeSummary{{CheckedPoints: 20, TotalPass: 18, TotalFail: 2}}
	assert.Equal(t, OutcomeFail, Summarize(in).OverallFinalResult)
}

func TestRebuildSizeSummariesReplacesDuplicateKey(t *testing.T) {
	first := MeasurementDetail{Size: "M", KValue: "K1", WashStage: "Before Wash", Pcs: []Piece{{PcNumber: 1}}}
	second := MeasurementDetail{Size: "M", KValue: "K1", WashStage: "beforeWash", Pcs: []Piece{{PcNumber: 1}, {PcNumber: 2}}}

	out := RebuildSizeSummaries([]MeasurementDetail{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].CheckedPcs)
}
