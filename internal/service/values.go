package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueToNumber formats v as a fixed-point decimal with precision digits and
// a dot separator. Empty input (nil, "", false, a nil pointer) yields nil;
// text that is not a number formats from its numeric prefix, or as zero.
// Non-finite input (NaN, infinities) formats as zero.
func ValueToNumber(v any, precision int) *string {
	f, ok := toFloat(deref(v))
	if !ok {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	precision = max(precision, 0)

	scale := math.Pow10(precision)
	rounded := math.Round(f*scale) / scale
	s := strconv.FormatFloat(rounded, 'f', precision, 64)
	if s == "-"+strconv.FormatFloat(0, 'f', precision, 64) {
		s = s[1:]
	}
	return &s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case bool:
		if !n {
			return 0, false
		}
		return 1, true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if n == "" {
			return 0, false
		}
		return numericPrefix(n), true
	case fmt.Stringer:
		return toFloat(n.String())
	default:
		return 0, true
	}
}

// numericPrefix parses the longest leading decimal number of s.
func numericPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
	}
	return 0
}
