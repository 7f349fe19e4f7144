package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/networth/internal/domain"
	"github.com/mtlprog/networth/internal/snapshot"
)

type fakeSnapshots struct {
	snapshots   []domain.Snapshot
	holdings    map[int][]domain.Holding
	liabilities map[int][]domain.LiabilityBalance
	err         error
}

func (f *fakeSnapshots) GetByDate(_ context.Context, date time.Time) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	for _, s := range f.snapshots {
		if s.Date.Equal(date) {
			return s, nil
		}
	}
	return domain.Snapshot{}, snapshot.ErrNotFound
}

func (f *fakeSnapshots) GetLatest(_ context.Context) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	if len(f.snapshots) == 0 {
		return domain.Snapshot{}, snapshot.ErrNotFound
	}
	return f.snapshots[len(f.snapshots)-1], nil
}

func (f *fakeSnapshots) ListHoldings(_ context.Context, id int) ([]domain.Holding, error) {
	return f.holdings[id], nil
}

func (f *fakeSnapshots) ListLiabilities(_ context.Context, id int) ([]domain.LiabilityBalance, error) {
	return f.liabilities[id], nil
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func newFixture() (*fakeSnapshots, *fakeRates, *fakeOracle) {
	snaps := &fakeSnapshots{
		snapshots: []domain.Snapshot{
			{ID: 1, Date: day(2024, 1, 31)},
			{ID: 2, Date: day(2024, 2, 29)},
		},
		holdings: map[int][]domain.Holding{
			1: {crypto("BTC", "1")},
			2: {crypto("BTC", "1"), crypto("ETH", "10"), holding("EUR", domain.AssetClassFiat, domain.ValuationSourceManual, "500")},
		},
		liabilities: map[int][]domain.LiabilityBalance{
			2: {{Name: "Card", Balance: d("300")}, {Name: "Loan", Balance: d("200")}},
		},
	}
	rates := newFakeRates()
	rates.history["BTC"] = d("40000")
	rates.current["BTC"] = d("50000")
	oracle := &fakeOracle{prices: map[string]decimal.Decimal{"ETH": d("2500")}}
	return snaps, rates, oracle
}

func TestValueSnapshotLatest(t *testing.T) {
	snaps, rates, oracle := newFixture()
	svc := NewService(snaps, rates, oracle, "EUR")

	report, err := svc.ValueSnapshot(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, day(2024, 2, 29), report.Date)
	// 50000 + 25000 + 500
	assert.True(t, report.TotalValue.Equal(d("75500")), "total = %s", report.TotalValue)
	assert.True(t, report.TotalLiabilities.Equal(d("500")))
	assert.True(t, report.NetWorth.Equal(d("75000")))
	assert.Len(t, report.Liabilities, 2)
}

func TestValueSnapshotByDate(t *testing.T) {
	snaps, rates, oracle := newFixture()
	svc := NewService(snaps, rates, oracle, "EUR")
	date := day(2024, 1, 31)

	report, err := svc.ValueSnapshot(context.Background(), &date)
	require.NoError(t, err)

	assert.True(t, report.TotalValue.Equal(d("40000")))
	assert.True(t, report.NetWorth.Equal(d("40000")))
	assert.Empty(t, oracle.batchCalls)
}

func TestValueSnapshotNoData(t *testing.T) {
	svc := NewService(&fakeSnapshots{}, newFakeRates(), nil, "EUR")

	_, err := svc.ValueSnapshot(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoData)

	date := day(2020, 1, 1)
	_, err = svc.ValueSnapshot(context.Background(), &date)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestValueSnapshotStorageError(t *testing.T) {
	svc := NewService(&fakeSnapshots{err: errors.New("db down")}, newFakeRates(), nil, "EUR")

	_, err := svc.ValueSnapshot(context.Background(), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoData)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestRefreshRatesPerSymbolResults(t *testing.T) {
	rates := newFakeRates()
	oracle := &fakeOracle{prices: map[string]decimal.Decimal{"BTC": d("51000")}}
	svc := NewService(&fakeSnapshots{}, rates, oracle, "EUR")

	results := svc.RefreshRates(context.Background(), []string{"btc", "NOPE", "BTC"})
	require.Len(t, results, 2)

	assert.Equal(t, "BTC", results[0].Symbol)
	require.NotNil(t, results[0].Price)
	assert.True(t, results[0].Price.Equal(d("51000")))
	assert.Empty(t, results[0].Error)

	assert.Equal(t, "NOPE", results[1].Symbol)
	assert.Nil(t, results[1].Price)
	assert.NotEmpty(t, results[1].Error)

	assert.Equal(t, []string{"BTC", "NOPE"}, oracle.singleCalls, "one request per symbol")
	assert.Empty(t, oracle.batchCalls)
	assert.Equal(t, []string{"BTC"}, rates.updates)
}

func TestRefreshRatesWithoutOracle(t *testing.T) {
	svc := NewService(&fakeSnapshots{}, newFakeRates(), nil, "EUR")

	results := svc.RefreshRates(context.Background(), []string{"BTC"})
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
}

func TestRefreshHeld(t *testing.T) {
	snaps, rates, _ := newFixture()
	oracle := &fakeOracle{prices: map[string]decimal.Decimal{"BTC": d("1"), "ETH": d("2")}}
	svc := NewService(snaps, rates, oracle, "EUR")

	results, err := svc.RefreshHeld(context.Background())
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.ElementsMatch(t, []string{"BTC", "ETH"}, oracle.singleCalls, "cash is never refreshed")
}
