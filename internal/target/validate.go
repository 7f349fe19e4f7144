package target

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// Validate checks a candidate target set. Each target needs a key, a type consistent with that
// key, a percentage between 0 and 100 and a non-negative tolerance; the first repeated key fails. A percentage sum more than 0.01
// away from 100 fails unless allowInvalidSum is set, in which case the set passes with a report
// marked invalid.
func Validate(targets []domain.AllocationTarget, allowInvalidSum bool) (domain.TargetValidation, error) {
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		key := domain.NormalizeSymbol(t.Key)
		if key == "" {
			return domain.TargetValidation{}, domain.ValidationError("key", t.Key, "target key is required")
		}
		if t.TargetPct.IsNegative() || t.TargetPct.GreaterThan(domain.Hundred) {
			return domain.TargetValidation{}, domain.ValidationError("targetPct", t.TargetPct.String(), "must be between 0 and 100")
		}
		if t.TolerancePct != nil && t.TolerancePct.IsNegative() {
			return domain.TargetValidation{}, domain.ValidationError("tolerancePct", t.TolerancePct.String(), "must not be negative")
		}
		if err := validateType(key, t.Type); err != nil {
			return domain.TargetValidation{}, err
		}
		if seen[key] {
			return domain.TargetValidation{}, domain.ValidationError("key", key, "duplicate target key")
		}
		seen[key] = true
	}

	sum := Sum(targets)
	if sum.Sub(domain.Hundred).Abs().LessThanOrEqual(domain.SumEpsilon) {
		return domain.TargetValidation{Valid: true, Sum: sum}, nil
	}

	msg := fmt.Sprintf("target percentages sum to %s, expected 100", sum.String())
	if !allowInvalidSum {
		return domain.TargetValidation{}, domain.ValidationError("targets", sum.String(), msg)
	}
	return domain.TargetValidation{Valid: false, Sum: sum, Message: msg}, nil
}

// validateType checks that typ fits key. An empty type stands for the type inferred from the key.
// Only the OTHER key is the wildcard, and the OTHER key is never an asset or an asset class.
func validateType(key string, typ domain.TargetType) error {
	if typ == "" {
		typ = domain.InferTargetType(key)
	}
	switch typ {
	case domain.TargetTypeOther:
		if key != domain.WildcardKey {
			return domain.ValidationError("type", key, "only the OTHER key can be the wildcard")
		}
	case domain.TargetTypeAssetClass:
		if _, ok := domain.ParseAssetClass(key); !ok || key == domain.WildcardKey {
			return domain.ValidationError("key", key, "not an asset class")
		}
	case domain.TargetTypeAsset:
		if key == domain.WildcardKey {
			return domain.ValidationError("type", key, "OTHER is the wildcard, not an asset")
		}
	default:
		return domain.ValidationError("type", string(typ), "must be ASSET, ASSET_CLASS or OTHER")
	}
	return nil
}

// Sum adds the target percentages.
func Sum(targets []domain.AllocationTarget) decimal.Decimal {
	return domain.Sum(lo.Map(targets, func(t domain.AllocationTarget, _ int) decimal.Decimal { return t.TargetPct }))
}

// RemainingPercentage returns what is left to allocate after the given targets, never below zero.
func RemainingPercentage(partial []domain.AllocationTarget) decimal.Decimal {
	return decimal.Max(decimal.Zero, domain.Hundred.Sub(Sum(partial)))
}
