package quality

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	InspectionTypeGeneral = "General"
	InspectionLevelII     = "II"
)

var (
	// ErrChartNotFound 无匹配的抽样表行
	ErrChartNotFound = errors.New("aql chart not found")
	// ErrLevelNotFound 抽样表行中没有该 AQL 等级
	ErrLevelNotFound = errors.New("aql level not found")
	// ErrInvalidChart 抽样表数据不合法
	ErrInvalidChart = errors.New("invalid aql chart")
)

// AQLEntry 某 AQL 等级下的允收/拒收数
type AQLEntry struct {
	Level        float64 `json:"level"`
	AcceptDefect int     `json:"accept_defect"`
	RejectDefect int     `json:"reject_defect"`
}

// LotSizeRange 批量区间，Max 为空表示无上限
type LotSizeRange struct {
	Min int  `json:"min"`
	Max *int `json:"max"`
}

// Contains 批量是否落在区间内
func (r LotSizeRange) Contains(lot int) bool {
	if lot < r.Min {
		return false
	}
	return r.Max == nil || *r.Max >= lot
}

// ChartRow 抽样表的一行
type ChartRow struct {
	InspectionType string       `json:"inspection_type"`
	Level          string       `json:"level"`
	SampleSize     int          `json:"sample_size"`
	LotSize        LotSizeRange `json:"lot_size"`
	Entries        []AQLEntry   `json:"entries"`
}

// Entry 按 AQL 等级查找
func (r ChartRow) Entry(level float64) (AQLEntry, bool) {
	for _, e := range r.Entries {
		if sameLevel(e.Level, level) {
			return e, true
		}
	}
	return AQLEntry{}, false
}

// Validate 每个等级至多一条，且 accept < reject
func (r ChartRow) Validate() error {
	if r.SampleSize <= 0 {
		return fmt.Errorf("%w: sample size must be positive", ErrInvalidChart)
	}
	if r.LotSize.Min < 0 || (r.LotSize.Max != nil && *r.LotSize.Max < r.LotSize.Min) {
		return fmt.Errorf("%w: lot size range [%d, %v] is empty", ErrInvalidChart, r.LotSize.Min, formatMax(r.LotSize.Max))
	}
	for i, e := range r.Entries {
		if e.AcceptDefect < 0 || e.AcceptDefect >= e.RejectDefect {
			return fmt.Errorf("%w: level %g accept %d must be below reject %d", ErrInvalidChart, e.Level, e.AcceptDefect, e.RejectDefect)
		}
		for _, prev := range r.Entries[:i] {
			if sameLevel(prev.Level, e.Level) {
				return fmt.Errorf("%w: duplicate level %g", ErrInvalidChart, e.Level)
			}
		}
	}
	return nil
}

// AQLResult 抽样方案解析结果
type AQLResult struct {
	SampleSize     int     `json:"sample_size"`
	AcceptedDefect int     `json:"accepted_defect"`
	RejectedDefect int     `json:"rejected_defect"`
	LevelUsed      float64 `json:"level_used"`
}

// AQLQuery 二选一：LotSize 按批量区间，SampleSize 按最小样本量
type AQLQuery struct {
	LotSize    int
	SampleSize int
	Buyer      string
}

// FindBySampleSize 在 General/II 行中取 SampleSize >= n 的最小一行
func FindBySampleSize(rows []ChartRow, n int) (ChartRow, error) {
	candidates := generalII(rows)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SampleSize < candidates[j].SampleSize
	})
	for _, r := range candidates {
		if r.SampleSize >= n {
			return r, nil
		}
	}
	return ChartRow{}, fmt.Errorf("%w: no AQL chart found for a sample size of %d or greater", ErrChartNotFound, n)
}

// FindByLotSize 在 General/II 行中取批量区间包含 lot 的行
func FindByLotSize(rows []ChartRow, lot int) (ChartRow, error) {
	candidates := generalII(rows)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LotSize.Min < candidates[j].LotSize.Min
	})
	for _, r := range candidates {
		if r.LotSize.Contains(lot) {
			return r, nil
		}
	}
	return ChartRow{}, fmt.Errorf("%w: no AQL chart found for a lot size of %d", ErrChartNotFound, lot)
}

// ResolveAQL 解析买家对应的抽样方案
func ResolveAQL(rows []ChartRow, buyers *BuyerTable, q AQLQuery) (AQLResult, error) {
	var (
		row ChartRow
		err error
	)
	if q.SampleSize > 0 {
		row, err = FindBySampleSize(rows, q.SampleSize)
	} else {
		row, err = FindByLotSize(rows, q.LotSize)
	}
	if err != nil {
		return AQLResult{}, err
	}

	level := buyers.ResolveAQLLevel(q.Buyer)
	entry, ok := row.Entry(level)
	if !ok {
		return AQLResult{}, fmt.Errorf("%w: AQL level %g not found for the matching chart", ErrLevelNotFound, level)
	}
	return AQLResult{
		SampleSize:     row.SampleSize,
		AcceptedDefect: entry.AcceptDefect,
		RejectedDefect: entry.RejectDefect,
		LevelUsed:      level,
	}, nil
}

func generalII(rows []ChartRow) []ChartRow {
	out := make([]ChartRow, 0, len(rows))
	for _, r := range rows {
		if r.InspectionType == InspectionTypeGeneral && r.Level == InspectionLevelII {
			out = append(out, r)
		}
	}
	return out
}

func sameLevel(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatMax(v *int) string {
	if v == nil {
		return "∞"
	}
	return fmt.Sprint(*v)
}
