package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amount in currency using the currency's symbol, separators and minor units.
// Unknown currency codes fall back to a plain two-decimal number followed by the code.
func Money(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// SignedMoney is Money with an explicit plus sign for positive amounts.
func SignedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsPositive() {
		return "+" + Money(amount, currency)
	}
	return Money(amount, currency)
}

// Percent formats a percentage with two decimals.
func Percent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}
