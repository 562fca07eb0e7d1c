package quality

import (
	"strings"
)

// BuyerOther 未匹配任何规则时的买家
const BuyerOther = "Other"

// DefaultAQLLevel 未匹配买家时使用的 AQL 等级
const DefaultAQLLevel = 1.0

// BuyerRule MO号子串 → 买家。规则按顺序匹配，首个命中生效。
type BuyerRule struct {
	Pattern string `json:"pattern" mapstructure:"pattern"`
	Buyer   string `json:"buyer" mapstructure:"buyer"`
}

// LevelRule 买家名称关键字（不区分大小写的包含匹配）→ AQL 等级
type LevelRule struct {
	Keywords []string `json:"keywords" mapstructure:"keywords"`
	Level    float64  `json:"level" mapstructure:"level"`
}

// BuyerTable 买家识别与 AQL 等级表
type BuyerTable struct {
	Rules  []BuyerRule `json:"rules"`
	Levels []LevelRule `json:"levels"`
}

// DefaultBuyerTable 工厂当前使用的买家规则。
// "COM" 必须排在 "CO" 之前。
// "COSCO" 关键字与 ResolveBuyer 产生的 "Costco" 不相交，Costco 订单实际落到默认等级。
func DefaultBuyerTable() *BuyerTable {
	return &BuyerTable{
		Rules: []BuyerRule{
			{Pattern: "COM", Buyer: "MWW"},
			{Pattern: "CO", Buyer: "Costco"},
			{Pattern: "AR", Buyer: "Aritzia"},
			{Pattern: "RT", Buyer: "Reitmans"},
			{Pattern: "AF", Buyer: "ANF"},
			{Pattern: "NT", Buyer: "STORI"},
			{Pattern: "YMCMH", Buyer: "Elite"},
			{Pattern: "YMCMT", Buyer: "Elite"},
		},
		Levels: []LevelRule{
			{Keywords: []string{"MWW"}, Level: 2.5},
			{Keywords: []string{"REITMANS"}, Level: 4.0},
			{Keywords: []string{"ARITZIA"}, Level: 1.5},
			{Keywords: []string{"A & F", "A&F", "ANF"}, Level: 1.5},
			{Keywords: []string{"COSCO"}, Level: 1.0},
		},
	}
}

// NewBuyerTable 使用自定义规则，空列表回退到默认规则
func NewBuyerTable(rules []BuyerRule, levels []LevelRule) *BuyerTable {
	def := DefaultBuyerTable()
	t := &BuyerTable{Rules: rules, Levels: levels}
	if len(t.Rules) == 0 {
		t.Rules = def.Rules
	}
	if len(t.Levels) == 0 {
		t.Levels = def.Levels
	}
	return t
}

// ResolveBuyer 根据MO号识别买家，大小写敏感的子串匹配
func (t *BuyerTable) ResolveBuyer(moNo string) string {
	if moNo == "" {
		return BuyerOther
	}
	for _, r := range t.Rules {
		if r.Pattern != "" && strings.Contains(moNo, r.Pattern) {
			return r.Buyer
		}
	}
	return BuyerOther
}

// ResolveAQLLevel 根据买家名称确定 AQL 等级
func (t *BuyerTable) ResolveAQLLevel(buyer string) float64 {
	if buyer == "" {
		return DefaultAQLLevel
	}
	upper := strings.ToUpper(buyer)
	for _, l := range t.Levels {
		for _, kw := range l.Keywords {
			if kw != "" && strings.Contains(upper, strings.ToUpper(kw)) {
				return l.Level
			}
		}
	}
	return DefaultAQLLevel
}
