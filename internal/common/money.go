package common

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders amount in the given ISO currency, rounded to the
// currency's minor unit. Unknown codes fall back to a plain two-place string.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// FormatPercent renders a percentage rounded to two places.
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}
