// Package money formats decimal amounts for display. Arithmetic stays in
// shopspring/decimal; go-money supplies the locale-correct symbol and
// grouping for the configured household currency.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "USD"

// Formatter renders amounts in one fixed currency.
type Formatter struct {
	currency *money.Currency
}

// NewFormatter creates a formatter for the given ISO-4217 code, falling back
// to USD for unknown codes.
func NewFormatter(currencyCode string) *Formatter {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(DefaultCurrency)
	}
	return &Formatter{currency: currency}
}

// Format renders a decimal amount, e.g. 1234.5 -> "$1,234.50".
func (f *Formatter) Format(amount decimal.Decimal) string {
	return money.New(f.toMinorUnits(amount), f.currency.Code).Display()
}

// Symbol returns the currency symbol, e.g. "$".
func (f *Formatter) Symbol() string {
	return f.currency.Grapheme
}

// Code returns the ISO-4217 currency code.
func (f *Formatter) Code() string {
	return f.currency.Code
}

func (f *Formatter) toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.New(1, int32(f.currency.Fraction))).Round(0).IntPart()
}
