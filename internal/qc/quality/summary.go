package quality

// 洗水阶段
const (
	WashStageBeforeWash   = "beforeWash"
	WashStageAfterWash    = "afterWash"
	WashStageAfterIroning = "afterIroning"
)

var washStageLabels = map[string]string{
	"Before Wash":   WashStageBeforeWash,
	"After Wash":    WashStageAfterWash,
	"After Ironing": WashStageAfterIroning,
}

// NormalizeWashStage 将界面标签转换为存储用的规范值，其他值原样返回
func NormalizeWashStage(label string) string {
	if v, ok := washStageLabels[label]; ok {
		return v
	}
	return label
}

// Piece 一件被测衣服
type Piece struct {
	PcNumber          int                `json:"pc_number"`
	MeasurementPoints []MeasurementPoint `json:"measurement_points"`
}

// MeasurementDetail 一个 (尺码, 洗水阶段, K值) 的测量数据
type MeasurementDetail struct {
	Size      string  `json:"size"`
	KValue    string  `json:"kvalue"`
	WashStage string  `json:"before_after_wash"`
	Qty       int     `json:"qty"`
	Pcs       []Piece `json:"pcs"`
}

// SummaryKey 尺码汇总的唯一键
type SummaryKey struct {
	Size      string
	KValue    string
	WashStage string
}

// Key 使用规范化后的洗水阶段
func (d MeasurementDetail) Key() SummaryKey {
	return SummaryKey{Size: d.Size, KValue: d.KValue, WashStage: NormalizeWashStage(d.WashStage)}
}

// SizeSummary 尺码级测量汇总，TotalPass+TotalFail == CheckedPoints
type SizeSummary struct {
	Size                    string `json:"size"`
	KValue                  string `json:"kvalue"`
	WashStage               string `json:"before_after_wash"`
	CheckedPcs              int    `json:"checked_pcs"`
	CheckedPoints           int    `json:"checked_points"`
	TotalPass               int    `json:"total_pass"`
	TotalFail               int    `json:"total_fail"`
	PlusToleranceFailCount  int    `json:"plus_tolerance_fail_count"`
	MinusToleranceFailCount int    `json:"minus_tolerance_fail_count"`
}

// Key 汇总键
func (s SizeSummary) Key() SummaryKey {
	return SummaryKey{Size: s.Size, KValue: s.KValue, WashStage: s.WashStage}
}

// AggregateSize 汇总一个尺码的全部测量点。
// 已存储的 pass/fail 直接计数，没有结果的点按 Evaluate 现场判定。
func AggregateSize(d MeasurementDetail) SizeSummary {
	key := d.Key()
	s := SizeSummary{
		Size:       key.Size,
		KValue:     key.KValue,
		WashStage:  key.WashStage,
		CheckedPcs: len(d.Pcs),
	}
	for _, pc := range d.Pcs {
		for _, p := range pc.MeasurementPoints {
			s.CheckedPoints++
			result := p.Result
			if !p.Scored() {
				result = Evaluate(p).Result
			}
			if result == ResultPass {
				s.TotalPass++
				continue
			}
			s.TotalFail++
			plus, minus := ToleranceAttribution(p)
			if plus {
				s.PlusToleranceFailCount++
			}
			if minus {
				s.MinusToleranceFailCount++
			}
		}
	}
	return s
}

// ScorePoints 为未判定的测量点写入结果；reevaluate 为 true 时全部重算
func ScorePoints(d *MeasurementDetail, reevaluate bool) {
	for i := range d.Pcs {
		points := d.Pcs[i].MeasurementPoints
		for j := range points {
			if reevaluate || !points[j].Scored() {
				points[j].Result = Evaluate(points[j]).Result
			}
		}
	}
}
