package quality

import "math"

// PassRateThreshold 测量合格率门槛（含）
const PassRateThreshold = 95

// DispositionInput 综合判定输入
type DispositionInput struct {
	SizeSummaries []SizeSummary
	DefectResult  string
	Override      string
}

// Disposition 综合判定结果
type Disposition struct {
	TotalCheckedPoint  int    `json:"total_checked_point"`
	TotalPass          int    `json:"total_pass"`
	TotalFail          int    `json:"total_fail"`
	PassRate           int    `json:"pass_rate"`
	OverallFinalResult string `json:"overall_final_result"`
}

// ResolveOverall 纯函数，保存、重算、提交三处共用。
// Override 为 "Pass"/"Fail" 时直接采用；否则 passRate>=95 且缺陷结论为 Pass 才算 Pass。
// 缺陷结论为空时视为 Pass。
func ResolveOverall(in DispositionInput) Disposition {
	var d Disposition
	for _, s := range in.SizeSummaries {
		d.TotalCheckedPoint += s.CheckedPoints
		d.TotalPass += s.TotalPass
		d.TotalFail += s.TotalFail
	}
	d.PassRate = 100
	if d.TotalCheckedPoint > 0 {
		d.PassRate = int(math.Round(float64(d.TotalPass) / float64(d.TotalCheckedPoint) * 100))
	}

	if ValidOutcome(in.Override) {
		d.OverallFinalResult = in.Override
		return d
	}
	defectResult := in.DefectResult
	if defectResult == "" {
		defectResult = OutcomePass
	}
	if d.PassRate >= PassRateThreshold && defectResult == OutcomePass {
		d.OverallFinalResult = OutcomePass
	} else {
		d.OverallFinalResult = OutcomeFail
	}
	return d
}

// SummaryInput 报告级汇总输入
type SummaryInput struct {
	Measurements  []MeasurementDetail
	SizeSummaries []SizeSummary
	Defects       DefectDetails
	AQL           *AQLResult
	// CheckedPcs 为 0 时按测量数量、缺陷录入的检验数依次回退
	CheckedPcs int
	Override   string
	// ZeroDefects SOP 报告：综合判定要求缺陷总数为 0，不看 AQL 允收数
	ZeroDefects bool
}

// OverallSummary 报告级汇总
type OverallSummary struct {
	Disposition
	TotalCheckedPcs   int     `json:"total_checked_pcs"`
	RejectedDefectPcs int     `json:"rejected_defect_pcs"`
	TotalDefectCount  int     `json:"total_defect_count"`
	DefectRate        float64 `json:"defect_rate"`
	DefectRatio       float64 `json:"defect_ratio"`
	DefectResult      string  `json:"defect_result"`
}

// Summarize 从原始测量与缺陷数据重新推导报告汇总。
// 没有尺码汇总但有原始测量数据时，先按 AggregateSize 现场汇总。
func Summarize(in SummaryInput) OverallSummary {
	summaries := in.SizeSummaries
	if len(summaries) == 0 && len(in.Measurements) > 0 {
		summaries = RebuildSizeSummaries(in.Measurements)
	}
	defects := SummarizeDefects(in.Defects, in.AQL)

	checked := in.CheckedPcs
	if checked <= 0 {
		for _, m := range in.Measurements {
			if m.Qty > 0 {
				checked += m.Qty
			}
		}
	}
	if checked <= 0 {
		checked = in.Defects.CheckedQty
	}

	dispositionDefects := defects.Result
	if in.ZeroDefects {
		dispositionDefects = DefectResult(defects.TotalDefectCount, nil)
	}

	out := OverallSummary{
		Disposition: ResolveOverall(DispositionInput{
			SizeSummaries: summaries,
			DefectResult:  dispositionDefects,
			Override:      in.Override,
		}),
		TotalCheckedPcs:   checked,
		RejectedDefectPcs: defects.RejectedPcs,
		TotalDefectCount:  defects.TotalDefectCount,
		DefectResult:      defects.Result,
	}
	if checked > 0 {
		out.DefectRate = round1(float64(defects.TotalDefectCount) / float64(checked) * 100)
		out.DefectRatio = round1(float64(defects.RejectedPcs) / float64(checked) * 100)
	}
	return out
}

// RebuildSizeSummaries 按键汇总，重复键后者覆盖前者，保持首次出现的顺序
func RebuildSizeSummaries(details []MeasurementDetail) []SizeSummary {
	out := make([]SizeSummary, 0, len(details))
	index := make(map[SummaryKey]int, len(details))
	for _, d := range details {
		s := AggregateSize(d)
		if i, ok := index[s.Key()]; ok {
			out[i] = s
			continue
		}
		index[s.Key()] = len(out)
		out = append(out, s)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
