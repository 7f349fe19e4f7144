package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/networth/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func valued(symbol string, class domain.AssetClass, value string) domain.ValuedHolding {
	v := d(value)
	return domain.ValuedHolding{Symbol: symbol, Name: symbol, Class: class, Value: &v, Status: domain.PriceResolved}
}

func valuation(holdings ...domain.ValuedHolding) domain.ValuationReport {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.ValueOrZero())
	}
	return domain.ValuationReport{Currency: "EUR", Holdings: holdings, TotalValue: total}
}

func target(key, pct string) domain.AllocationTarget {
	return domain.AllocationTarget{Key: key, Type: domain.InferTargetType(key), TargetPct: d(pct)}
}

func rowByKey(t *testing.T, report domain.AllocationReport, key string) domain.AllocationRow {
	t.Helper()
	for _, r := range report.Allocations {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("no row for %s in %+v", key, report.Allocations)
	return domain.AllocationRow{}
}

func actionByKey(t *testing.T, report domain.RebalancingReport, key string) domain.RebalanceAction {
	t.Helper()
	for _, a := range report.Actions {
		if a.Key == key {
			return a
		}
	}
	t.Fatalf("no action for %s", key)
	return domain.RebalanceAction{}
}

func TestCompareAndSuggestFiftyFifty(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "22500"),
		valued("ETH", domain.AssetClassCrypto, "27500"),
	)
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "50"), target("ETH", "50")}, domain.DefaultTolerance)
	require.NoError(t, err)

	assert.True(t, report.HasTargets)
	assert.True(t, report.TargetsSumValid)

	btc := rowByKey(t, report, "BTC")
	assert.True(t, btc.CurrentPct.Equal(d("45")), "BTC current = %s", btc.CurrentPct)
	assert.True(t, btc.DriftPct.Equal(d("-5")))
	assert.False(t, btc.WithinTolerance)
	eth := rowByKey(t, report, "ETH")
	assert.True(t, eth.DriftPct.Equal(d("5")))

	suggestion := Suggest(report, nil)
	assert.False(t, suggestion.IsBalanced)

	buy := actionByKey(t, suggestion, "BTC")
	assert.Equal(t, domain.ActionBuy, buy.Action)
	assert.True(t, buy.AmountInBaseCurrency.Equal(d("2500")), "buy amount = %s", buy.AmountInBaseCurrency)

	sell := actionByKey(t, suggestion, "ETH")
	assert.Equal(t, domain.ActionSell, sell.Action)
	assert.True(t, sell.AmountInBaseCurrency.Equal(d("2500")))
}

func TestSuggestToleranceOverride(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "22500"),
		valued("ETH", domain.AssetClassCrypto, "27500"),
	)
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "50"), target("ETH", "50")}, domain.DefaultTolerance)
	require.NoError(t, err)

	wide := d("5")
	suggestion := Suggest(report, &wide)
	assert.True(t, suggestion.IsBalanced, "drift of exactly the tolerance is held")
	for _, a := range suggestion.Actions {
		assert.Equal(t, domain.ActionHold, a.Action)
		assert.True(t, a.AmountInBaseCurrency.IsZero())
	}
}

func TestCompareTargetTolerance(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "47"),
		valued("ETH", domain.AssetClassCrypto, "53"),
	)
	tol := d("3")
	btcTarget := target("BTC", "50")
	btcTarget.TolerancePct = &tol

	report, err := Compare(v, []domain.AllocationTarget{btcTarget, target("ETH", "50")}, domain.DefaultTolerance)
	require.NoError(t, err)

	assert.True(t, rowByKey(t, report, "BTC").WithinTolerance, "|−3| ≤ 3")
	assert.False(t, rowByKey(t, report, "ETH").WithinTolerance, "|3| > default 2")
}

func TestCompareWildcard(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "60"),
		valued("ETH", domain.AssetClassCrypto, "20"),
		valued("SOL", domain.AssetClassCrypto, "20"),
	)
	report, err := Compare(v, []domain.AllocationTarget{target("OTHER", "40"), target("BTC", "60")}, domain.DefaultTolerance)
	require.NoError(t, err)

	require.Len(t, report.Allocations, 2)
	btc := report.Allocations[0]
	assert.Equal(t, "BTC", btc.Key)
	assert.True(t, btc.DriftPct.IsZero())
	assert.True(t, btc.WithinTolerance)

	other := report.Allocations[1]
	assert.Equal(t, domain.WildcardKey, other.Key)
	assert.Equal(t, domain.TargetTypeOther, other.Type)
	assert.Equal(t, 2, other.HoldingCount)
	assert.True(t, other.CurrentValue.Equal(d("40")))
	assert.True(t, other.CurrentPct.Equal(d("40")))
	assert.True(t, other.WithinTolerance)

	assert.True(t, Suggest(report, nil).IsBalanced)
}

func TestCompareUntargetedWithoutWildcard(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "90"),
		valued("DOGE", domain.AssetClassCrypto, "10"),
	)
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "100")}, domain.DefaultTolerance)
	require.NoError(t, err)

	doge := rowByKey(t, report, "DOGE")
	assert.True(t, doge.TargetPct.IsZero())
	assert.True(t, doge.CurrentPct.Equal(d("10")))
	assert.False(t, doge.WithinTolerance, "untargeted holdings are always flagged")

	sell := actionByKey(t, Suggest(report, nil), "DOGE")
	assert.Equal(t, domain.ActionSell, sell.Action)
	assert.True(t, sell.AmountInBaseCurrency.Equal(d("10")))
}

func TestCompareTargetWithoutHolding(t *testing.T) {
	v := valuation(valued("BTC", domain.AssetClassCrypto, "1000"))
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "70"), target("GOLD", "30")}, domain.DefaultTolerance)
	require.NoError(t, err)

	gold := rowByKey(t, report, "GOLD")
	assert.Zero(t, gold.HoldingCount)
	assert.True(t, gold.CurrentValue.IsZero())
	assert.True(t, gold.DriftPct.Equal(d("-30")))
	assert.True(t, gold.DriftValue.Equal(d("-300")))

	buy := actionByKey(t, Suggest(report, nil), "GOLD")
	assert.Equal(t, domain.ActionBuy, buy.Action)
	assert.True(t, buy.AmountInBaseCurrency.Equal(d("300")))
}

func TestCompareAssetClassPrecedence(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "50"),
		valued("ETH", domain.AssetClassCrypto, "20"),
		valued("SOL", domain.AssetClassCrypto, "10"),
		valued("AAPL", domain.AssetClassStock, "20"),
	)
	report, err := Compare(v, []domain.AllocationTarget{
		target("BTC", "50"),
		target("crypto", "30"),
		target("OTHER", "20"),
	}, domain.DefaultTolerance)
	require.NoError(t, err)

	crypto := rowByKey(t, report, "CRYPTO")
	assert.Equal(t, domain.TargetTypeAssetClass, crypto.Type)
	assert.Equal(t, 2, crypto.HoldingCount, "BTC keeps its own asset target")
	assert.True(t, crypto.CurrentValue.Equal(d("30")))

	other := rowByKey(t, report, "OTHER")
	assert.Equal(t, 1, other.HoldingCount)
	assert.True(t, other.CurrentValue.Equal(d("20")))

	assert.Equal(t, "OTHER", report.Allocations[len(report.Allocations)-1].Key)
}

func TestCompareZeroTotal(t *testing.T) {
	v := valuation(
		valued("BTC", domain.AssetClassCrypto, "0"),
		domain.ValuedHolding{Symbol: "ETH", Class: domain.AssetClassCrypto, Status: domain.PriceAbsent},
	)
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "50"), target("ETH", "50")}, domain.DefaultTolerance)
	require.NoError(t, err)

	for _, r := range report.Allocations {
		assert.True(t, r.CurrentPct.IsZero())
		assert.True(t, r.DriftPct.IsZero())
		assert.True(t, r.DriftValue.IsZero())
	}
	suggestion := Suggest(report, nil)
	for _, a := range suggestion.Actions {
		assert.True(t, a.AmountInBaseCurrency.IsZero())
	}
}

func TestCompareInvalidSumFlagged(t *testing.T) {
	v := valuation(valued("BTC", domain.AssetClassCrypto, "100"))
	report, err := Compare(v, []domain.AllocationTarget{target("BTC", "90")}, domain.DefaultTolerance)
	require.NoError(t, err)

	assert.False(t, report.TargetsSumValid)
	assert.True(t, report.TargetsSum.Equal(d("90")))
}

func TestCompareNoTargets(t *testing.T) {
	_, err := Compare(valuation(valued("BTC", domain.AssetClassCrypto, "1")), nil, domain.DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

type fakeTargets struct {
	targets []domain.AllocationTarget
	err     error
}

func (f fakeTargets) List(context.Context) ([]domain.AllocationTarget, error) { return f.targets, f.err }

type fakeValuer struct {
	report domain.ValuationReport
	err    error
	calls  int
}

func (f *fakeValuer) ValueSnapshot(context.Context, *time.Time) (domain.ValuationReport, error) {
	f.calls++
	return f.report, f.err
}

func TestServiceNoTargetsSkipsValuation(t *testing.T) {
	valuer := &fakeValuer{}
	svc := NewService(fakeTargets{}, valuer, domain.DefaultTolerance)

	_, err := svc.Rebalancing(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.Zero(t, valuer.calls)
}

func TestServiceRebalancing(t *testing.T) {
	valuer := &fakeValuer{report: valuation(
		valued("BTC", domain.AssetClassCrypto, "22500"),
		valued("ETH", domain.AssetClassCrypto, "27500"),
	)}
	svc := NewService(fakeTargets{targets: []domain.AllocationTarget{target("BTC", "50"), target("ETH", "50")}}, valuer, domain.DefaultTolerance)

	report, err := svc.Rebalancing(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, report.Actions, 2)
	assert.True(t, report.TotalValue.Equal(d("50000")))
}

func TestServiceErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(fakeTargets{err: boom}, &fakeValuer{}, domain.DefaultTolerance).Allocation(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	_, err = NewService(fakeTargets{targets: []domain.AllocationTarget{target("BTC", "100")}}, &fakeValuer{err: domain.ErrNoData}, domain.DefaultTolerance).
		Allocation(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestServiceConfiguredDefaultTolerance(t *testing.T) {
	valuer := &fakeValuer{report: valuation(
		valued("BTC", domain.AssetClassCrypto, "47"),
		valued("ETH", domain.AssetClassCrypto, "53"),
	)}
	tol := d("1")
	btcTarget := target("BTC", "50")
	btcTarget.TolerancePct = &tol
	targets := fakeTargets{targets: []domain.AllocationTarget{btcTarget, target("ETH", "50")}}

	report, err := NewService(targets, valuer, d("5")).Allocation(context.Background(), nil)
	require.NoError(t, err)

	eth := rowByKey(t, report, "ETH")
	assert.True(t, eth.TolerancePct.Equal(d("5")))
	assert.True(t, eth.WithinTolerance, "|3| ≤ configured 5")
	assert.False(t, rowByKey(t, report, "BTC").WithinTolerance, "own tolerance 1 wins over the default")
	assert.True(t, domain.DefaultTolerance.Equal(d("2")), "built-in default is left untouched")
}
