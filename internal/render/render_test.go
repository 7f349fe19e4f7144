package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

func TestMoney(t *testing.T) {
	got := Money(decimal.RequireFromString("1234.567"), "eur")
	if !strings.Contains(got, "1,234.57") {
		t.Errorf("Money = %q, want it to contain 1,234.57", got)
	}

	if got := Money(decimal.RequireFromString("10.5"), "XYZ1"); got != "10.50 XYZ1" {
		t.Errorf("unknown currency = %q, want plain fallback", got)
	}

	if got := SignedMoney(decimal.NewFromInt(5), "XYZ1"); got != "+5.00 XYZ1" {
		t.Errorf("SignedMoney = %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.RequireFromString("-4.999")); got != "-5.00%" {
		t.Errorf("Percent = %q, want -5.00%%", got)
	}
}

func TestValuationMarkdown(t *testing.T) {
	price := decimal.NewFromInt(50000)
	value := decimal.NewFromInt(25000)
	r := domain.ValuationReport{
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency: "EUR",
		Holdings: []domain.ValuedHolding{
			{Symbol: "BTC", Name: "Bitcoin", Class: domain.AssetClassCrypto, Amount: decimal.RequireFromString("0.5"), Price: &price, Value: &value, Status: domain.PriceResolved},
			{Symbol: "DOGE", Name: "DOGE", Class: domain.AssetClassCrypto, Amount: decimal.NewFromInt(10), Status: domain.PriceAbsent},
		},
		TotalValue:  value,
		NetWorth:    value,
		AbsentCount: 1,
	}

	md := Valuation(r)
	for _, want := range []string{"2024-03-01", "Bitcoin", "25,000.00", "| DOGE | CRYPTO | 10 | - | - | absent |", "1 holding(s) could not be priced"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Liabilities") {
		t.Error("liabilities line should be omitted when there are none")
	}
}

func TestRebalancingMarkdownBalanced(t *testing.T) {
	md := Rebalancing(domain.RebalancingReport{IsBalanced: true})
	if !strings.Contains(md, "balanced") {
		t.Errorf("markdown = %q", md)
	}
}

func TestAllocationMarkdownFlagsInvalidSum(t *testing.T) {
	md := Allocation(domain.AllocationReport{
		Currency:   "EUR",
		TargetsSum: decimal.NewFromInt(90),
		Allocations: []domain.AllocationRow{
			{DisplayName: "Bitcoin", HoldingCount: 1, WithinTolerance: false},
		},
	})
	if !strings.Contains(md, "**off**") || !strings.Contains(md, "90.00%") {
		t.Errorf("markdown = %s", md)
	}
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "# hi\n", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "# hi\n" {
		t.Errorf("plain output = %q", buf.String())
	}
}
