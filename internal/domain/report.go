package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceStatus tells how a holding's value was obtained.
type PriceStatus string

const (
	PriceResolved PriceStatus = "resolved" // valued at a live or historical price
	PriceStale    PriceStatus = "stale"    // no price; valued at the value stored with the holding
	PriceAbsent   PriceStatus = "absent"   // no price and no stored value
)

// ValuedHolding is a holding with its resolved price and value. Price and Value are nil when absent.
type ValuedHolding struct {
	Symbol string           `json:"symbol"`
	Name   string           `json:"name"`
	Class  AssetClass       `json:"class"`
	Amount decimal.Decimal  `json:"amount"`
	Price  *decimal.Decimal `json:"price"`
	Value  *decimal.Decimal `json:"value"`
	Status PriceStatus      `json:"status"`
}

// ValueOrZero returns the holding's value, treating an absent value as zero.
func (h ValuedHolding) ValueOrZero() decimal.Decimal {
	if h.Value == nil {
		return decimal.Zero
	}
	return *h.Value
}

// ValuationReport is a priced snapshot.
type ValuationReport struct {
	Date             time.Time          `json:"date"`
	AsOf             *time.Time         `json:"asOf,omitempty"` // nil for current prices
	Currency         string             `json:"currency"`
	Holdings         []ValuedHolding    `json:"holdings"`
	TotalValue       decimal.Decimal    `json:"totalValue"`
	AbsentCount      int                `json:"absentCount"`
	StaleCount       int                `json:"staleCount"`
	TotalLiabilities decimal.Decimal    `json:"totalLiabilities"`
	NetWorth         decimal.Decimal    `json:"netWorth"`
	Liabilities      []LiabilityBalance `json:"liabilities,omitempty"`
}

// AllocationRow compares the current share of one target key with its target.
type AllocationRow struct {
	Key             string          `json:"key"`
	Type            TargetType      `json:"type"`
	DisplayName     string          `json:"displayName"`
	CurrentValue    decimal.Decimal `json:"currentValue"`
	CurrentPct      decimal.Decimal `json:"currentPct"`
	TargetPct       decimal.Decimal `json:"targetPct"`
	TolerancePct    decimal.Decimal `json:"tolerancePct"`
	DriftPct        decimal.Decimal `json:"driftPct"`
	DriftValue      decimal.Decimal `json:"driftValue"`
	WithinTolerance bool            `json:"withinTolerance"`
	HoldingCount    int             `json:"holdingCount"`
}

// AllocationReport is the comparison of a valued portfolio with its targets.
type AllocationReport struct {
	Date            time.Time       `json:"date"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	Currency        string          `json:"currency"`
	Allocations     []AllocationRow `json:"allocations"`
	HasTargets      bool            `json:"hasTargets"`
	TargetsSumValid bool            `json:"targetsSumValid"`
	TargetsSum      decimal.Decimal `json:"targetsSum"`
}

// Action is a rebalancing instruction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// RebalanceAction is the suggested trade for one target key.
type RebalanceAction struct {
	Key                  string          `json:"key"`
	DisplayName          string          `json:"displayName"`
	Action               Action          `json:"action"`
	AmountInBaseCurrency decimal.Decimal `json:"amountInBaseCurrency"`
	CurrentPct           decimal.Decimal `json:"currentPct"`
	TargetPct            decimal.Decimal `json:"targetPct"`
	DriftPct             decimal.Decimal `json:"driftPct"`
}

// RebalancingReport lists the trades that bring the portfolio back to its targets.
type RebalancingReport struct {
	Date       time.Time         `json:"date"`
	TotalValue decimal.Decimal   `json:"totalValue"`
	Currency   string            `json:"currency"`
	Actions    []RebalanceAction `json:"actions"`
	IsBalanced bool              `json:"isBalanced"`
}
