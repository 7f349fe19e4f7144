package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WildcardKey is the target key that collects every holding without a more specific target.
const WildcardKey = "OTHER"

// TargetType says what a target key refers to.
type TargetType string

const (
	TargetTypeAsset      TargetType = "ASSET"
	TargetTypeAssetClass TargetType = "ASSET_CLASS"
	TargetTypeOther      TargetType = "OTHER"
)

var (
	// DefaultTolerance is the drift band, in percentage points, used when neither the target nor
	// the configuration sets one.
	DefaultTolerance = decimal.NewFromInt(2)
	// SumEpsilon is the allowed deviation of a target set's percentage sum from 100.
	SumEpsilon = decimal.RequireFromString("0.01")

	Hundred = decimal.NewFromInt(100)
)

// AllocationTarget is a declared desired share of the portfolio.
type AllocationTarget struct {
	ID           uuid.UUID        `json:"id"`
	Key          string           `json:"key"`
	Type         TargetType       `json:"type"`
	TargetPct    decimal.Decimal  `json:"targetPct"`
	TolerancePct *decimal.Decimal `json:"tolerancePct,omitempty"`
}

// Tolerance returns the target's tolerance, or def when the target has none.
func (t AllocationTarget) Tolerance(def decimal.Decimal) decimal.Decimal {
	if t.TolerancePct != nil {
		return *t.TolerancePct
	}
	return def
}

// IsWildcard reports whether t is the OTHER bucket.
func (t AllocationTarget) IsWildcard() bool {
	return t.Type == TargetTypeOther || NormalizeSymbol(t.Key) == WildcardKey
}

// InferTargetType derives the type of a target from its key.
func InferTargetType(key string) TargetType {
	key = NormalizeSymbol(key)
	if key == WildcardKey {
		return TargetTypeOther
	}
	if _, ok := ParseAssetClass(key); ok {
		return TargetTypeAssetClass
	}
	return TargetTypeAsset
}

// TargetValidation is the outcome of validating a target set.
type TargetValidation struct {
	Valid   bool            `json:"valid"`
	Sum     decimal.Decimal `json:"sum"`
	Message string          `json:"message,omitempty"`
}
