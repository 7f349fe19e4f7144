package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, total string
		want        string
	}{
		{"half", "50", "100", "50"},
		{"btc share", "22500", "50000", "45"},
		{"zero total", "10", "0", "0"},
		{"zero part", "0", "100", "0"},
		{"whole", "7", "7", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(decimal.RequireFromString(tt.part), decimal.RequireFromString(tt.total))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Percent(%s, %s) = %s, want %s", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestShareOf(t *testing.T) {
	got := ShareOf(decimal.NewFromInt(5), decimal.NewFromInt(50000))
	if !got.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("ShareOf(5, 50000) = %s, want 2500", got)
	}
	if got := ShareOf(decimal.NewFromInt(5), decimal.Zero); !got.IsZero() {
		t.Errorf("ShareOf on zero total = %s, want 0", got)
	}
}

func TestSum(t *testing.T) {
	got := Sum([]decimal.Decimal{decimal.NewFromInt(1), decimal.RequireFromString("2.5"), decimal.NewFromInt(-1)})
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Sum = %s, want 2.5", got)
	}
	if !Sum(nil).IsZero() {
		t.Error("Sum(nil) should be zero")
	}
}

func TestRoundMoney(t *testing.T) {
	got := RoundMoney(decimal.RequireFromString("10.005"))
	if got.String() != "10.01" {
		t.Errorf("RoundMoney(10.005) = %s, want 10.01", got)
	}
}
