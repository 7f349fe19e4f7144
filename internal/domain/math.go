package domain

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const moneyPrecision = 2

// Percent returns part/total*100, or zero when total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(Hundred)
}

// ShareOf returns pct percent of total.
func ShareOf(pct, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return total.Mul(pct).Div(Hundred)
}

// Sum adds all values.
func Sum(values []decimal.Decimal) decimal.Decimal {
	return lo.Reduce(values, func(acc, v decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(v)
	}, decimal.Zero)
}

// RoundMoney rounds an amount to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPrecision)
}
