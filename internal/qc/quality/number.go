package quality

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number 测量数值，兼容数字、小数字符串与英寸分数字符串（如 "10 1/2"、"-3/8"、"½"）
type Number struct {
	raw string
}

// NumberOf 由浮点数构造
func NumberOf(v float64) Number {
	return Number{raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// NumberString 由原始字符串构造
func NumberString(s string) Number {
	return Number{raw: strings.TrimSpace(s)}
}

// String 返回原始输入
func (n Number) String() string { return n.raw }

// IsZero 未录入
func (n Number) IsZero() bool { return n.raw == "" }

// Float 解析为小数，失败时 ok=false
func (n Number) Float() (float64, bool) {
	return ParseDecimal(n.raw)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.raw == "" {
		return []byte("null"), nil
	}
	if isPlainNumber(n.raw) {
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.raw = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n.raw = strings.TrimSpace(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	n.raw = f.String()
	return nil
}

var vulgarFractions = map[rune]float64{
	'½': 0.5,
	'¼': 0.25,
	'¾': 0.75,
	'⅛': 0.125,
	'⅜': 0.375,
	'⅝': 0.625,
	'⅞': 0.875,
}

// ParseDecimal 解析小数或分数字符串。空串与单独的 "-" 视为无效。
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	if isPlainNumber(s) {
		v, _ := strconv.ParseFloat(s, 64)
		return v, true
	}

	s = strings.ReplaceAll(s, "⁄", "/")
	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}

	// 单字符分数，可带整数前缀："1½"、"1 ½"
	runes := []rune(s)
	if len(runes) > 0 {
		if frac, ok := vulgarFractions[runes[len(runes)-1]]; ok {
			whole := strings.TrimSpace(string(runes[:len(runes)-1]))
			if whole == "" {
				return sign * frac, true
			}
			w, err := strconv.Atoi(whole)
			if err != nil || w < 0 {
				return 0, false
			}
			return sign * (float64(w) + frac), true
		}
	}

	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		v, ok := parseFraction(parts[0])
		if !ok {
			return 0, false
		}
		return sign * v, true
	case 2:
		w, err := strconv.Atoi(parts[0])
		if err != nil || w < 0 {
			return 0, false
		}
		v, ok := parseFraction(parts[1])
		if !ok {
			return 0, false
		}
		return sign * (float64(w) + v), true
	}
	return 0, false
}

// isPlainNumber 仅接受有限的十进制数字面量（排除 NaN、Inf、十六进制）
func isPlainNumber(s string) bool {
	if s == "" || strings.ContainsAny(s, "xXpPiInN_") {
		return false
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func parseFraction(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return 0, false
	}
	d, err := strconv.Atoi(den)
	if err != nil || d <= 0 {
		return 0, false
	}
	return float64(n) / float64(d), true
}
