package quality

const (
	OutcomePass = "Pass"
	OutcomeFail = "Fail"
)

// ValidOutcome 仅接受 "Pass" / "Fail"
func ValidOutcome(s string) bool {
	return s == OutcomePass || s == OutcomeFail
}

// DefectItem 某件衣服上的一类缺陷
type DefectItem struct {
	Name string `json:"defect_name"`
	Qty  int    `json:"defect_qty"`
}

// PieceDefects 单件缺陷记录
type PieceDefects struct {
	PcNumber int          `json:"pc_number"`
	Defects  []DefectItem `json:"defects"`
}

// DefectDetails 报告的缺陷录入
type DefectDetails struct {
	CheckedQty  int            `json:"checked_qty"`
	DefectsByPc []PieceDefects `json:"defects_by_pc"`
	// Result 仅保存录入人员给出的 Pass/Fail，推导结果不回写
	Result string `json:"result,omitempty"`
}

// DefectSummary RejectedPcs <= CheckedQty
type DefectSummary struct {
	CheckedQty       int    `json:"checked_qty"`
	RejectedPcs      int    `json:"rejected_pcs"`
	TotalDefectCount int    `json:"total_defect_count"`
	Result           string `json:"result"`
}

// DefectResult 有 AQL 时总缺陷数 <= 允收数为 Pass，否则零缺陷为 Pass
func DefectResult(totalDefects int, aql *AQLResult) string {
	if aql != nil {
		if totalDefects <= aql.AcceptedDefect {
			return OutcomePass
		}
		return OutcomeFail
	}
	if totalDefects == 0 {
		return OutcomePass
	}
	return OutcomeFail
}

// SummarizeDefects 统计不良件数（按件号去重，至少一条数量>0的缺陷）与缺陷总数。
// 有 AQL 时总按允收数判定；没有 AQL 才采用录入的结论，仍没有则零缺陷为 Pass。
func SummarizeDefects(d DefectDetails, aql *AQLResult) DefectSummary {
	s := DefectSummary{CheckedQty: d.CheckedQty}
	rejected := make(map[int]struct{})
	for _, pc := range d.DefectsByPc {
		pieceTotal := 0
		for _, item := range pc.Defects {
			if item.Qty > 0 {
				pieceTotal += item.Qty
			}
		}
		if pieceTotal > 0 {
			rejected[pc.PcNumber] = struct{}{}
		}
		s.TotalDefectCount += pieceTotal
	}
	s.RejectedPcs = len(rejected)

	if aql == nil && ValidOutcome(d.Result) {
		s.Result = d.Result
	} else {
		s.Result = DefectResult(s.TotalDefectCount, aql)
	}
	return s
}
