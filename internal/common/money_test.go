package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"usd rounds to cents", "1234.567", "USD", "$1,234.57"},
		{"usd negative", "-12.5", "USD", "-$12.50"},
		{"jpy has no minor unit", "1234.4", "JPY", "¥1,234"},
		{"unknown currency", "3.14159", "XYZ", "3.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "14.29%", FormatPercent(decimal.RequireFromString("14.2857142857142857")))
	assert.Equal(t, "-5.00%", FormatPercent(decimal.NewFromInt(-5)))
}
