package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mtlprog/networth/internal/domain"
)

// Valuation renders a valuation report as markdown.
func Valuation(r domain.ValuationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Net worth on %s\n\n", r.Date.Format(domain.DateLayout))
	if r.AsOf != nil {
		fmt.Fprintf(&b, "Prices as of %s.\n\n", r.AsOf.Format(domain.DateLayout))
	} else {
		b.WriteString("Current prices.\n\n")
	}

	b.WriteString("| Asset | Class | Amount | Price | Value | Status |\n")
	b.WriteString("|---|---|---:|---:|---:|---|\n")
	for _, h := range r.Holdings {
		price, value := "-", "-"
		if h.Price != nil {
			price = Money(*h.Price, r.Currency)
		}
		if h.Value != nil {
			value = Money(*h.Value, r.Currency)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			h.Name, h.Class, h.Amount.String(), price, value, h.Status)
	}

	fmt.Fprintf(&b, "\n**Assets:** %s  \n", Money(r.TotalValue, r.Currency))
	if len(r.Liabilities) > 0 {
		fmt.Fprintf(&b, "**Liabilities:** %s  \n", Money(r.TotalLiabilities, r.Currency))
	}
	fmt.Fprintf(&b, "**Net worth:** %s\n", Money(r.NetWorth, r.Currency))

	if r.AbsentCount > 0 {
		fmt.Fprintf(&b, "\n> %d holding(s) could not be priced and count as zero.\n", r.AbsentCount)
	}
	if r.StaleCount > 0 {
		fmt.Fprintf(&b, "\n> %d holding(s) use their last stored value.\n", r.StaleCount)
	}
	return b.String()
}

// Allocation renders an allocation report as markdown.
func Allocation(r domain.AllocationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Allocation on %s\n\n", r.Date.Format(domain.DateLayout))
	b.WriteString("| Target | Holdings | Value | Current | Target | Drift | |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	for _, row := range r.Allocations {
		mark := "ok"
		if !row.WithinTolerance {
			mark = "**off**"
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s |\n",
			row.DisplayName, row.HoldingCount, Money(row.CurrentValue, r.Currency),
			Percent(row.CurrentPct), Percent(row.TargetPct), Percent(row.DriftPct), mark)
	}

	fmt.Fprintf(&b, "\n**Total:** %s\n", Money(r.TotalValue, r.Currency))
	if !r.TargetsSumValid {
		fmt.Fprintf(&b, "\n> Targets sum to %s, not 100%%.\n", Percent(r.TargetsSum))
	}
	return b.String()
}

// Rebalancing renders rebalancing suggestions as markdown.
func Rebalancing(r domain.RebalancingReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Rebalancing on %s\n\n", r.Date.Format(domain.DateLayout))
	if r.IsBalanced {
		b.WriteString("Portfolio is balanced, nothing to do.\n")
		return b.String()
	}

	b.WriteString("| Target | Action | Amount | Drift |\n")
	b.WriteString("|---|---|---:|---:|\n")
	for _, a := range r.Actions {
		amount := "-"
		if a.Action != domain.ActionHold {
			amount = Money(a.AmountInBaseCurrency, r.Currency)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", a.DisplayName, a.Action, amount, Percent(a.DriftPct))
	}
	return b.String()
}

// Write prints markdown to w, styled for the terminal unless plain is set.
func Write(w io.Writer, markdown string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, markdown)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
