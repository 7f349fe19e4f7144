package allocation

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

type bucket struct {
	target *domain.AllocationTarget
	key    string
	typ    domain.TargetType
	name   string
	value  decimal.Decimal
	count  int
}

// Compare measures a valued portfolio against a target set. Each holding is matched to its asset
// target, else to its asset-class target, else to the OTHER wildcard. Without a wildcard an
// unmatched holding gets its own row with a zero target. Targets without holdings still get a row.
// Targets without their own tolerance use defaultTolerance. It returns domain.ErrNoData when
// there are no targets.
func Compare(valuation domain.ValuationReport, targets []domain.AllocationTarget, defaultTolerance decimal.Decimal) (domain.AllocationReport, error) {
	if len(targets) == 0 {
		return domain.AllocationReport{}, fmt.Errorf("no allocation targets: %w", domain.ErrNoData)
	}

	var (
		byAsset  = make(map[string]*bucket)
		byClass  = make(map[domain.AssetClass]*bucket)
		wildcard *bucket
		ordered  []*bucket
	)
	for i := range targets {
		t := &targets[i]
		key := domain.NormalizeSymbol(t.Key)
		typ := t.Type
		if typ == "" {
			typ = domain.InferTargetType(key)
		}
		b := &bucket{target: t, key: key, typ: typ, name: key}

		switch {
		case t.IsWildcard():
			b.typ = domain.TargetTypeOther
			b.name = "Other"
			wildcard = b
			continue // always reported last
		case typ == domain.TargetTypeAssetClass:
			class, _ := domain.ParseAssetClass(key)
			byClass[class] = b
		default:
			byAsset[key] = b
		}
		ordered = append(ordered, b)
	}

	var untargeted []*bucket
	for _, h := range valuation.Holdings {
		symbol := domain.NormalizeSymbol(h.Symbol)
		b, ok := byAsset[symbol]
		if !ok {
			b, ok = byClass[h.Class]
		}
		if !ok && wildcard != nil {
			b, ok = wildcard, true
		}
		if !ok {
			b = &bucket{key: symbol, typ: domain.TargetTypeAsset, name: h.Name}
			byAsset[symbol] = b
			untargeted = append(untargeted, b)
		}
		if b.typ == domain.TargetTypeAsset && b.target != nil && h.Name != "" {
			b.name = h.Name
		}
		b.value = b.value.Add(h.ValueOrZero())
		b.count++
	}

	ordered = append(ordered, untargeted...)
	if wildcard != nil {
		ordered = append(ordered, wildcard)
	}

	total := valuation.TotalValue
	sum := domain.Sum(lo.Map(targets, func(t domain.AllocationTarget, _ int) decimal.Decimal { return t.TargetPct }))

	report := domain.AllocationReport{
		Date:            valuation.Date,
		TotalValue:      total,
		Currency:        valuation.Currency,
		Allocations:     lo.Map(ordered, func(b *bucket, _ int) domain.AllocationRow { return compareRow(b, total, defaultTolerance) }),
		HasTargets:      true,
		TargetsSumValid: sum.Sub(domain.Hundred).Abs().LessThanOrEqual(domain.SumEpsilon),
		TargetsSum:      sum,
	}
	return report, nil
}

func compareRow(b *bucket, total, defaultTolerance decimal.Decimal) domain.AllocationRow {
	targetPct := decimal.Zero
	tolerance := defaultTolerance
	if b.target != nil {
		targetPct = b.target.TargetPct
		tolerance = b.target.Tolerance(defaultTolerance)
	}

	row := domain.AllocationRow{
		Key:          b.key,
		Type:         b.typ,
		DisplayName:  b.name,
		CurrentValue: b.value,
		TargetPct:    targetPct,
		TolerancePct: tolerance,
		HoldingCount: b.count,
	}

	if total.IsZero() {
		// Nothing to measure against; only untargeted holdings are flagged.
		row.WithinTolerance = b.target != nil
		return row
	}

	row.CurrentPct = domain.Percent(b.value, total)
	row.DriftPct = row.CurrentPct.Sub(targetPct)
	row.DriftValue = domain.ShareOf(row.DriftPct, total)
	row.WithinTolerance = b.target != nil && row.DriftPct.Abs().LessThanOrEqual(tolerance)
	return row
}

// Suggest derives buy, sell and hold actions from a comparison. A row drifting no more than its
// tolerance, or toleranceOverride when given, is held. Amounts are the drift valued at the
// comparison's total, in one pass.
func Suggest(report domain.AllocationReport, toleranceOverride *decimal.Decimal) domain.RebalancingReport {
	actions := lo.Map(report.Allocations, func(row domain.AllocationRow, _ int) domain.RebalanceAction {
		tolerance := row.TolerancePct
		if toleranceOverride != nil {
			tolerance = *toleranceOverride
		}

		action := domain.RebalanceAction{
			Key:         row.Key,
			DisplayName: row.DisplayName,
			Action:      domain.ActionHold,
			CurrentPct:  row.CurrentPct,
			TargetPct:   row.TargetPct,
			DriftPct:    row.DriftPct,
		}
		switch {
		case row.DriftPct.Abs().LessThanOrEqual(tolerance):
		case row.DriftPct.IsNegative():
			action.Action = domain.ActionBuy
			action.AmountInBaseCurrency = row.DriftValue.Abs()
		default:
			action.Action = domain.ActionSell
			action.AmountInBaseCurrency = row.DriftValue
		}
		return action
	})

	return domain.RebalancingReport{
		Date:       report.Date,
		TotalValue: report.TotalValue,
		Currency:   report.Currency,
		Actions:    actions,
		IsBalanced: lo.EveryBy(actions, func(a domain.RebalanceAction) bool { return a.Action == domain.ActionHold }),
	}
}
