package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate sources.
const (
	RateSourceOracle = "coingecko"
	RateSourceManual = "manual"
)

// Rate is an immutable price fact: Symbol priced at Price in Currency at Timestamp, from Source.
type Rate struct {
	Symbol    string          `json:"symbol"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// CachedRate is the current price for (Symbol, Currency). It is valid for a TTL after UpdatedAt.
type CachedRate struct {
	Symbol    string          `json:"symbol"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Rate returns the cache entry as a rate timestamped at its update time.
func (c CachedRate) Rate() Rate {
	return Rate{
		Symbol:    c.Symbol,
		Currency:  c.Currency,
		Price:     c.Price,
		Timestamp: c.UpdatedAt,
		Source:    c.Source,
	}
}

// RateInput is a historical rate to record.
type RateInput struct {
	Symbol    string          `json:"symbol"`
	Currency  string          `json:"currency,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source,omitempty"`
}

// RefreshResult is the outcome of refreshing one symbol's current price.
type RefreshResult struct {
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Error  string           `json:"error,omitempty"`
}
