package quality

import "math"

const (
	ResultPass = "pass"
	ResultFail = "fail"
)

// boundEpsilon 吸收浮点加法误差，例如 10.1+0.2 应视为等于 10.3
const boundEpsilon = 1e-9

// MeasurementPoint 单件衣服上的一个测量点
type MeasurementPoint struct {
	PointName        string `json:"point_name"`
	OrderNo          int    `json:"order_no"`
	Spec             Number `json:"specs"`
	ToleranceMinus   Number `json:"tolerance_minus"`
	TolerancePlus    Number `json:"tolerance_plus"`
	Measured         Number `json:"measured_value_decimal"`
	MeasuredFraction string `json:"measured_value_fraction,omitempty"`
	Result           string `json:"result"`
}

// Scored 是否已有判定结果
func (p MeasurementPoint) Scored() bool {
	return p.Result == ResultPass || p.Result == ResultFail
}

// Evaluation 测量点判定
type Evaluation struct {
	Result        string  `json:"result"`
	Indeterminate bool    `json:"indeterminate"` // 实测值或标准值无法解析，按 fail 计但不做公差归因
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
}

// Offsets 统一公差符号：下偏差为非正数，上偏差为非负数。
// 未填写或无法解析的公差按 0 处理。
func (p MeasurementPoint) Offsets() (minus, plus float64) {
	if v, ok := p.ToleranceMinus.Float(); ok {
		minus = -math.Abs(v)
	}
	if v, ok := p.TolerancePlus.Float(); ok {
		plus = math.Abs(v)
	}
	return minus, plus
}

// Evaluate spec+minus <= measured <= spec+plus 为 pass
func Evaluate(p MeasurementPoint) Evaluation {
	measured, okM := p.Measured.Float()
	spec, okS := p.Spec.Float()
	if !okM || !okS {
		return Evaluation{Result: ResultFail, Indeterminate: true}
	}
	minus, plus := p.Offsets()
	ev := Evaluation{Lower: spec + minus, Upper: spec + plus}
	if measured >= ev.Lower-boundEpsilon && measured <= ev.Upper+boundEpsilon {
		ev.Result = ResultPass
	} else {
		ev.Result = ResultFail
	}
	return ev
}

// ToleranceAttribution 失败点的公差归因。
// 比较的是实测值与公差偏移量本身，而非 spec+公差；两个方向互不排斥。
// 实测值或标准值无法解析时不归因。
func ToleranceAttribution(p MeasurementPoint) (plusFail, minusFail bool) {
	measured, okM := p.Measured.Float()
	if _, okS := p.Spec.Float(); !okM || !okS {
		return false, false
	}
	if v, ok := p.TolerancePlus.Float(); ok && measured > math.Abs(v) {
		plusFail = true
	}
	if v, ok := p.ToleranceMinus.Float(); ok && measured < -math.Abs(v) {
		minusFail = true
	}
	return plusFail, minusFail
}
