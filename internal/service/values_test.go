package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueToNumber(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		precision int
		want      *string
	}{
		{"nil", nil, 2, nil},
		{"empty string", "", 2, nil},
		{"false", false, 0, nil},
		{"nil pointer", (*float64)(nil), 2, nil},
		{"zero int", 0, 2, ptr("0.00")},
		{"zero string", "0", 0, ptr("0")},
		{"int", 42, 0, ptr("42")},
		{"float rounding half up", 2.5, 0, ptr("3")},
		{"float precision", 1234.5678, 2, ptr("1234.57")},
		{"negative", -1.005, 1, ptr("-1.0")},
		{"numeric string", "19.9", 2, ptr("19.90")},
		{"numeric prefix", "12abc", 1, ptr("12.0")},
		{"non numeric", "abc", 0, ptr("0")},
		{"true", true, 0, ptr("1")},
		{"pointer", ptr(7.25), 1, ptr("7.3")},
		{"negative precision", 3.7, -1, ptr("4")},
		{"no thousands separator", 1234567.891, 2, ptr("1234567.89")},
		{"nan string", "nan", 2, ptr("0.00")},
		{"infinity string", "-Infinity", 0, ptr("0")},
		{"inf prefix", "info", 1, ptr("0.0")},
		{"float nan", math.NaN(), 1, ptr("0.0")},
		{"float inf", math.Inf(1), 0, ptr("0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValueToNumber(tt.value, tt.precision)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}
