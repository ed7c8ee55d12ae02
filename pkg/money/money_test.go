package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		amount   string
		want     string
	}{
		{"usd simple", "USD", "12.50", "$12.50"},
		{"usd grouping", "USD", "1234.56", "$1,234.56"},
		{"usd zero", "USD", "0", "$0.00"},
		{"usd rounds half up", "USD", "9.999", "$10.00"},
		{"eur", "EUR", "1234.56", "€1,234.56"},
		{"jpy has no minor units", "JPY", "1200", "¥1,200"},
		{"unknown code falls back to usd", "ZZZ", "5", "$5.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFormatter(tc.currency)
			assert.Equal(t, tc.want, f.Format(decimal.RequireFromString(tc.amount)))
		})
	}
}

func TestSymbolAndCode(t *testing.T) {
	f := NewFormatter("USD")
	assert.Equal(t, "$", f.Symbol())
	assert.Equal(t, "USD", f.Code())
}
