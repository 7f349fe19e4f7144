package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// Sheet names written by every destination.
const (
	SheetSummary    = "SUMMARY"
	SheetAllocation = "ALLOCATION"
	SheetRebalance  = "REBALANCE"
)

// Table is one named sheet of rows. The first row is the header.
type Table struct {
	Name string
	Rows [][]any
}

// SheetWriter writes tables to a spreadsheet destination, replacing their previous content.
type SheetWriter interface {
	Write(ctx context.Context, tables []Table) error
}

// Service turns allocation and rebalancing reports into tables and hands them to every writer.
type Service struct {
	writers []SheetWriter
}

// NewService creates a new export Service.
func NewService(writers ...SheetWriter) *Service {
	return &Service{writers: writers}
}

// Export writes the reports to every configured destination. A failing destination does not
// stop the others. Implements worker.AfterReportHook.
func (s *Service) Export(ctx context.Context, alloc domain.AllocationReport, rebalance domain.RebalancingReport) error {
	tables := BuildTables(alloc, rebalance)

	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, tables); err != nil {
			slog.Warn("export: destination failed", "writer", fmt.Sprintf("%T", w), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildTables lays the reports out as the SUMMARY, ALLOCATION and REBALANCE sheets.
func BuildTables(alloc domain.AllocationReport, rebalance domain.RebalancingReport) []Table {
	return []Table{
		{Name: SheetSummary, Rows: buildSummary(alloc, rebalance)},
		{Name: SheetAllocation, Rows: buildAllocation(alloc)},
		{Name: SheetRebalance, Rows: buildRebalance(rebalance)},
	}
}

// buildSummary builds the SUMMARY sheet data.
// Columns: Field | Value
func buildSummary(alloc domain.AllocationReport, rebalance domain.RebalancingReport) [][]any {
	buy, sell := tradeTotals(rebalance)
	return [][]any{
		{"Field", "Value"},
		{"Date", alloc.Date.Format(domain.DateLayout)},
		{"Currency", alloc.Currency},
		{"Total value", toFloat(alloc.TotalValue)},
		{"Targets sum", toFloat(alloc.TargetsSum)},
		{"Targets sum valid", alloc.TargetsSumValid},
		{"Balanced", rebalance.IsBalanced},
		{"Total to buy", toFloat(buy)},
		{"Total to sell", toFloat(sell)},
	}
}

// buildAllocation builds the ALLOCATION sheet data.
// Columns: Key | Name | Type | Holdings | Value | Current % | Target % | Tolerance % | Drift % | Drift value | OK
func buildAllocation(alloc domain.AllocationReport) [][]any {
	data := make([][]any, 0, len(alloc.Allocations)+1)
	data = append(data, []any{
		"Key", "Name", "Type", "Holdings", "Value",
		"Current %", "Target %", "Tolerance %", "Drift %", "Drift value", "OK",
	})
	for _, row := range alloc.Allocations {
		data = append(data, []any{
			row.Key, row.DisplayName, string(row.Type), row.HoldingCount,
			toFloat(domain.RoundMoney(row.CurrentValue)),
			toFloat(row.CurrentPct.Round(2)),
			toFloat(row.TargetPct),
			toFloat(row.TolerancePct),
			toFloat(row.DriftPct.Round(2)),
			toFloat(domain.RoundMoney(row.DriftValue)),
			lo.Ternary(row.WithinTolerance, 1, 0),
		})
	}
	return data
}

// buildRebalance builds the REBALANCE sheet data.
// Columns: Key | Name | Action | Amount | Current % | Target % | Drift %
func buildRebalance(rebalance domain.RebalancingReport) [][]any {
	data := [][]any{
		{"Key", "Name", "Action", "Amount", "Current %", "Target %", "Drift %"},
	}
	for _, a := range rebalance.Actions {
		data = append(data, []any{
			a.Key, a.DisplayName, string(a.Action),
			toFloat(domain.RoundMoney(a.AmountInBaseCurrency)),
			toFloat(a.CurrentPct.Round(2)),
			toFloat(a.TargetPct),
			toFloat(a.DriftPct.Round(2)),
		})
	}
	return data
}

func tradeTotals(rebalance domain.RebalancingReport) (buy, sell decimal.Decimal) {
	for _, a := range rebalance.Actions {
		switch a.Action {
		case domain.ActionBuy:
			buy = buy.Add(a.AmountInBaseCurrency)
		case domain.ActionSell:
			sell = sell.Add(a.AmountInBaseCurrency)
		}
	}
	return buy, sell
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
