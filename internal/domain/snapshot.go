package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used at every boundary.
const DateLayout = "2006-01-02"

// Snapshot is a dated checkpoint of holdings and liabilities. There is at most one per calendar date.
type Snapshot struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Holding is a quantity of one asset within one snapshot.
type Holding struct {
	ID               int              `json:"id"`
	SnapshotID       int              `json:"snapshotId"`
	Asset            Asset            `json:"asset"`
	Amount           decimal.Decimal  `json:"amount"`
	AcquisitionPrice *decimal.Decimal `json:"acquisitionPrice,omitempty"`
	AcquisitionDate  *time.Time       `json:"acquisitionDate,omitempty"`
	// StoredValue is the value recorded with the holding by older clients. It is only used when no price resolves.
	StoredValue *decimal.Decimal `json:"storedValue,omitempty"`
}

// LiabilityBalance is an outstanding debt recorded in a snapshot, in base currency.
type LiabilityBalance struct {
	ID         int             `json:"id"`
	SnapshotID int             `json:"snapshotId"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
}

// HoldingInput is a holding to be recorded in a new snapshot.
type HoldingInput struct {
	Symbol           string           `json:"symbol"`
	Amount           decimal.Decimal  `json:"amount"`
	AcquisitionPrice *decimal.Decimal `json:"acquisitionPrice,omitempty"`
	AcquisitionDate  *time.Time       `json:"acquisitionDate,omitempty"`
}

// LiabilityInput is a liability balance to be recorded in a new snapshot.
type LiabilityInput struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// SnapshotInput describes a snapshot to create.
type SnapshotInput struct {
	Date        string           `json:"date"`
	Notes       string           `json:"notes,omitempty"`
	Holdings    []HoldingInput   `json:"holdings"`
	Liabilities []LiabilityInput `json:"liabilities,omitempty"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns midnight UTC of the calendar date after t.
func NextDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ValidationError("date", s, "invalid date format, expected YYYY-MM-DD")
	}
	return t, nil
}
